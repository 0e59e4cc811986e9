/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Cfg holds the configuration from flags, MAPFIELDS_ environment variables and the config file
var Cfg = viper.New()

var stopProfile interface{ Stop() }

var rootCmd = &cobra.Command{
	Use:   "gomapfields",
	Short: "Conservative field remapping between meshes",
	Long: `
Maps cell centred fields from a source case to a target case and measures how
well the mapping conserves the field integral and reproduces analytic fields.

Configuration comes from flags, from environment variables named MAPFIELDS_<flag>,
or from a configuration file given with --config (default $HOME/.gomapfields.yaml).`,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	PersistentPostRun: func(*cobra.Command, []string) {
		if stopProfile != nil {
			stopProfile.Stop()
		}
	},
}

// Execute runs the command line, exiting with status 1 on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	Cfg.SetEnvPrefix("MAPFIELDS")
	Cfg.AutomaticEnv()
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.gomapfields.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("profile", "", "write a cpu or mem profile to the working directory")
	for _, name := range []string{"config", "logLevel", "profile"} {
		_ = Cfg.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// setConfig reads the config file, if there is one, then applies the log level and profiling
func setConfig() (err error) {
	cfgFile := Cfg.GetString("config")
	if cfgFile == "" {
		var home string
		if home, err = homedir.Dir(); err == nil {
			if fn := filepath.Join(home, ".gomapfields.yaml"); fileExists(fn) {
				cfgFile = fn
			}
		}
		err = nil
	}
	if cfgFile != "" {
		Cfg.SetConfigFile(cfgFile)
		if err = Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("problem reading configuration file: %w", err)
		}
	}
	var level logrus.Level
	if level, err = logrus.ParseLevel(Cfg.GetString("logLevel")); err != nil {
		return
	}
	logrus.SetLevel(level)
	switch p := Cfg.GetString("profile"); p {
	case "":
	case "cpu":
		stopProfile = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
	case "mem":
		stopProfile = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
	default:
		return fmt.Errorf("unknown profile %q, must be cpu or mem", p)
	}
	return
}

func fileExists(fn string) bool {
	_, err := os.Stat(fn)
	return err == nil
}
