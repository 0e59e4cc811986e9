package remap

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/fieldio"
	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
)

// Phase is a step of the cyclic remap
type Phase uint8

const (
	INIT = Phase(iota)
	FORWARD
	REASSERT_BC
	BACKWARD
	DONE
)

var phaseNames = [...]string{
	INIT:        "INIT",
	FORWARD:     "FORWARD",
	REASSERT_BC: "REASSERT_BC",
	BACKWARD:    "BACKWARD",
	DONE:        "DONE",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", p)
}

// CyclicTester maps a test field back and forth between two meshes to expose
// error accumulation. SourceStore and TargetStore may be nil, in which case
// nothing is persisted.
type CyclicTester struct {
	Factory     Factory
	Options     Options
	SourceStore fieldio.Store
	TargetStore fieldio.Store
	Time        string
	Log         logrus.FieldLogger
}

type CyclicReport struct {
	Cycles               int
	Method               Method
	Kind                 analytic.Kind
	SourceIntegralBefore float64
	SourceIntegralAfter  float64
	TargetIntegral       float64
	Conservation         analysis.ConservationReport // first source integral against final target integral
	DriftHistory         []float64                   // absolute drift after each cycle
	Source, Target       analysis.ErrorReport
}

// cycleState holds the fields owned by the cycle in progress
type cycleState struct {
	phase                    Phase
	cycle                    int
	srcAlpha, tgtAlpha       *fields.Scalar
	srcGradient, tgtGradient *fields.Vector
}

func (ct *CyclicTester) logger() logrus.FieldLogger {
	if ct.Log == nil {
		return logrus.StandardLogger()
	}
	return ct.Log
}

func (ct *CyclicTester) write(store fieldio.Store, fs ...*fields.Scalar) error {
	if store == nil {
		return nil
	}
	for _, f := range fs {
		if err := store.WriteScalar(ct.Time, f); err != nil {
			return fmt.Errorf("remap: writing %s/%s: %w", ct.Time, f.Name, err)
		}
	}
	return nil
}

// Run performs nCycles forward maps and nCycles-1 backward maps of model between src and tgt.
// Both mappers are built once and reused by every cycle.
func (ct *CyclicTester) Run(src, tgt *mesh.Mesh, model analytic.Model, nCycles int, method Method) (rpt *CyclicReport, err error) {
	if nCycles < 1 {
		return nil, fmt.Errorf("remap.CyclicTester: cycle count must be at least 1, got %d", nCycles)
	}
	if ct.Factory == nil {
		return nil, fmt.Errorf("remap.CyclicTester: no mapper factory")
	}
	log := ct.logger().WithFields(logrus.Fields{
		"source": src.Name,
		"target": tgt.Name,
		"kind":   model.Kind(),
		"method": method,
	})
	st := &cycleState{phase: INIT}
	enter := func(p Phase) {
		st.phase = p
		log.WithFields(logrus.Fields{"cycle": st.cycle, "phase": p}).Debug("cyclic remap")
	}
	enter(INIT)
	st.srcAlpha, st.srcGradient = analytic.Build(src, model, true)
	rpt = &CyclicReport{
		Cycles:               nCycles,
		Method:               method,
		Kind:                 model.Kind(),
		SourceIntegralBefore: analysis.Integral(src, st.srcAlpha),
		DriftHistory:         make([]float64, 0, nCycles),
	}
	if ct.SourceStore != nil {
		if err = ct.write(ct.SourceStore, st.srcAlpha); err != nil {
			return nil, err
		}
		if err = ct.SourceStore.WriteVector(ct.Time, st.srcGradient); err != nil {
			return nil, fmt.Errorf("remap: writing %s/%s: %w", ct.Time, st.srcGradient.Name, err)
		}
	}
	st.tgtAlpha, st.tgtGradient = analytic.Build(tgt, model, true)

	var forward, backward Mapper
	if forward, err = ct.Factory(src, tgt, ct.Options); err != nil {
		return nil, fmt.Errorf("remap: building %s to %s mapper: %w", src.Name, tgt.Name, err)
	}
	if backward, err = ct.Factory(tgt, src, ct.Options); err != nil {
		return nil, fmt.Errorf("remap: building %s to %s mapper: %w", tgt.Name, src.Name, err)
	}
	log.WithField("cycles", nCycles).Info("remapping")

	reassert := func() {
		enter(REASSERT_BC)
		analytic.InitBoundary(src, model, st.srcAlpha)
		analytic.InitBoundary(tgt, model, st.tgtAlpha)
	}
	for st.cycle = 1; st.cycle <= nCycles; st.cycle++ {
		if st.cycle > 1 {
			enter(BACKWARD)
			if err = backward.Interpolate(st.srcAlpha, st.tgtAlpha, st.tgtGradient, method); err != nil {
				return nil, fmt.Errorf("remap: cycle %d backward: %w", st.cycle, err)
			}
			reassert()
		}
		enter(FORWARD)
		if err = forward.Interpolate(st.tgtAlpha, st.srcAlpha, st.srcGradient, method); err != nil {
			return nil, fmt.Errorf("remap: cycle %d forward: %w", st.cycle, err)
		}
		reassert()
		rpt.DriftHistory = append(rpt.DriftHistory,
			math.Abs(rpt.SourceIntegralBefore-analysis.Integral(tgt, st.tgtAlpha)))
	}
	st.cycle = nCycles
	enter(DONE)

	rpt.Source = analysis.Analyze(src, st.srcAlpha, model)
	rpt.Target = analysis.Analyze(tgt, st.tgtAlpha, model)
	if err = ct.write(ct.TargetStore, st.tgtAlpha, rpt.Target.PerCellAbsError); err != nil {
		return nil, err
	}
	rpt.SourceIntegralAfter = analysis.Integral(src, st.srcAlpha)
	rpt.TargetIntegral = analysis.Integral(tgt, st.tgtAlpha)
	rpt.Conservation = analysis.NewConservationReport(rpt.SourceIntegralBefore, rpt.TargetIntegral)

	rpt.Source.Log(log, "Source")
	rpt.Target.Log(log, "Target")
	log.WithFields(logrus.Fields{
		"sourceIntegralBefore": rpt.SourceIntegralBefore,
		"sourceIntegralAfter":  rpt.SourceIntegralAfter,
		"targetIntegral":       rpt.TargetIntegral,
		"drift":                rpt.Conservation.AbsoluteDrift,
	}).Info("cyclic remap done")
	return
}
