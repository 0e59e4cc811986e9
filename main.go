package main

import "github.com/notargets/gomapfields/cmd"

func main() {
	cmd.Execute()
}
