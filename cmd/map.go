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
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/notargets/gomapfields/InputParameters"
	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/fieldio"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/overlap"
	"github.com/notargets/gomapfields/remap"
	"github.com/notargets/gomapfields/results"
)

// MapCmd represents the map command
var MapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map the fields of a source case onto a target case",
	Long: `
Maps every scalar and vector field of the selected source time onto the target
mesh. With --testOnly the case fields are left alone and analytic test fields
are mapped instead, reporting interpolation error and conservation.

gomapfields map -s cases/fine -t cases/coarse --method CONSERVATIVE`,
}

var mapFlags = []string{
	"sourceCase", "targetCase", "time", "method", "threads", "forceRecalc", "writeAddr",
	"testOnly", "testKind", "cyclicKind", "cycles", "ledger", "label", "inputParametersFile",
}

func init() {
	MapCmd.RunE = runMapCmd
	rootCmd.AddCommand(MapCmd)
	def := InputParameters.NewRemapParameters()
	MapCmd.Flags().StringP("sourceCase", "s", "", "source case directory")
	MapCmd.Flags().StringP("targetCase", "t", "", "target case directory")
	MapCmd.Flags().Float64("time", def.Time, "source time to map, the nearest time directory is used")
	MapCmd.Flags().StringP("method", "m", def.Method, "interpolation method: CONSERVATIVE, INVERSE_DISTANCE or CONSERVATIVE_FIRST_ORDER")
	MapCmd.Flags().IntP("threads", "n", def.Threads, "threads used to compute the mapping addressing")
	MapCmd.Flags().Bool("forceRecalc", def.ForceRecalc, "recompute the mapping addressing even when it is cached")
	MapCmd.Flags().Bool("writeAddr", def.WriteAddr, "cache the mapping addressing in the target case")
	MapCmd.Flags().Bool("testOnly", def.TestOnly, "map analytic test fields instead of the case fields")
	MapCmd.Flags().String("testKind", def.TestKind, "analytic field for the mapping error test")
	MapCmd.Flags().String("cyclicKind", def.CyclicKind, "analytic field for the cyclic remap of 2D meshes")
	MapCmd.Flags().Int("cycles", def.Cycles, "number of cycles of the cyclic remap")
	MapCmd.Flags().String("ledger", def.Ledger, "SQLite file recording test results")
	MapCmd.Flags().String("label", def.Label, "label of the recorded test results")
	MapCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file for input parameters, flags override its entries")
	for _, name := range mapFlags {
		_ = Cfg.BindPFlag(name, MapCmd.Flags().Lookup(name))
	}
}

func runMapCmd(cmd *cobra.Command, args []string) (err error) {
	var ip *InputParameters.RemapParameters
	if ip, err = remapParameters(); err != nil {
		logrus.Error(err)
		return
	}
	if err = runMap(ip, logrus.StandardLogger(), cmd.OutOrStdout()); err != nil {
		logrus.Error(err)
	}
	return
}

// remapParameters reads the input parameters file, if any, and overlays the flags that were set
func remapParameters() (ip *InputParameters.RemapParameters, err error) {
	ip = InputParameters.NewRemapParameters()
	fileName := Cfg.GetString("inputParametersFile")
	if fileName != "" {
		var data []byte
		if data, err = os.ReadFile(fileName); err != nil {
			return nil, err
		}
		if err = ip.Parse(data); err != nil {
			return nil, fmt.Errorf("reading %s: %w", fileName, err)
		}
	}
	// File entries give way to flags given on the command line and to MAPFIELDS_ variables
	use := func(name string) bool {
		return fileName == "" || MapCmd.Flags().Changed(name) ||
			os.Getenv("MAPFIELDS_"+strings.ToUpper(name)) != ""
	}
	if use("sourceCase") {
		ip.SourceCase = Cfg.GetString("sourceCase")
	}
	if use("targetCase") {
		ip.TargetCase = Cfg.GetString("targetCase")
	}
	if use("time") {
		ip.Time = Cfg.GetFloat64("time")
	}
	if use("method") {
		ip.Method = Cfg.GetString("method")
	}
	if use("threads") {
		ip.Threads = Cfg.GetInt("threads")
	}
	if use("forceRecalc") {
		ip.ForceRecalc = Cfg.GetBool("forceRecalc")
	}
	if use("writeAddr") {
		ip.WriteAddr = Cfg.GetBool("writeAddr")
	}
	if use("testOnly") {
		ip.TestOnly = Cfg.GetBool("testOnly")
	}
	if use("testKind") {
		ip.TestKind = Cfg.GetString("testKind")
	}
	if use("cyclicKind") {
		ip.CyclicKind = Cfg.GetString("cyclicKind")
	}
	if use("cycles") {
		ip.Cycles = Cfg.GetInt("cycles")
	}
	if use("ledger") {
		ip.Ledger = Cfg.GetString("ledger")
	}
	if use("label") {
		ip.Label = Cfg.GetString("label")
	}
	return
}

func runMap(ip *InputParameters.RemapParameters, log logrus.FieldLogger, out io.Writer) (err error) {
	method, testKind, cyclicKind, err := ip.Validate()
	if err != nil {
		return
	}
	if ip.SourceCase == "" || ip.TargetCase == "" {
		return fmt.Errorf("must supply a source case (-s, --sourceCase) and a target case (-t, --targetCase)")
	}
	ip.Print(out)
	var src, tgt *mesh.Mesh
	if src, err = mesh.Load(ip.SourceCase); err != nil {
		return
	}
	if tgt, err = mesh.Load(ip.TargetCase); err != nil {
		return
	}
	src.LogStatistics(log.WithField("case", "source"))
	tgt.LogStatistics(log.WithField("case", "target"))
	var (
		srcCase = fieldio.NewCase(ip.SourceCase)
		tgtCase = fieldio.NewCase(ip.TargetCase)
		opts    = remap.Options{
			Threads:     ip.Threads,
			ForceRecalc: ip.ForceRecalc,
			WriteAddr:   ip.WriteAddr,
			CacheDir:    filepath.Join(ip.TargetCase, mesh.ConstantDir),
			Log:         log,
		}
		timeName string
	)
	nearest, timeErr := srcCase.NearestTime(ip.Time)
	switch {
	case timeErr == nil:
		timeName = nearest.Name
	case ip.TestOnly && errors.Is(timeErr, fieldio.ErrNoTimes):
		timeName = strconv.FormatFloat(ip.Time, 'g', -1, 64)
	default:
		return timeErr
	}
	log.WithFields(logrus.Fields{
		"sourceCells": src.NCells(),
		"targetCells": tgt.NCells(),
		"time":        timeName,
		"method":      method,
	}).Info("using method " + method.String())

	if !ip.TestOnly {
		var mp remap.Mapper
		if mp, err = overlap.Factory(src, tgt, opts); err != nil {
			return
		}
		d := remap.NewDriver(tgtCase, log)
		_, err = d.MapFields(mp, srcCase, timeName, method)
		return
	}

	var ledger *results.Ledger
	if ip.Ledger != "" {
		if ledger, err = results.Open(ip.Ledger); err != nil {
			return
		}
		defer ledger.Close()
	}
	label := ip.Label
	if label == "" {
		label = fmt.Sprintf("%s_to_%s", src.Name, tgt.Name)
	}
	record := func(r results.Run) error {
		if ledger == nil {
			return nil
		}
		_, err := ledger.Record(r)
		return err
	}

	mr, err := remap.MeasureMappingError(overlap.Factory, opts, src, tgt, analytic.NewModel(testKind), method, log)
	if err != nil {
		return
	}
	ip.Tolerances.Log(log, "mapping", mr.Conservation, mr.Target)
	if err = record(results.FromMapping(label, src.Name, tgt.Name, mr)); err != nil {
		return
	}
	if src.NGeometricD != 2 {
		return
	}
	ct := &remap.CyclicTester{
		Factory:     overlap.Factory,
		Options:     opts,
		SourceStore: srcCase,
		TargetStore: tgtCase,
		Time:        timeName,
		Log:         log,
	}
	cr, err := ct.Run(src, tgt, analytic.NewModel(cyclicKind), ip.Cycles, method)
	if err != nil {
		return
	}
	ip.Tolerances.Log(log, "cyclic", cr.Conservation, cr.Target)
	return record(results.FromCyclic(label, src.Name, tgt.Name, cr))
}
