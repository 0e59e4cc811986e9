package remap

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/mesh"
)

// MappingReport is the outcome of a single interpolation of an analytic field
type MappingReport struct {
	Kind           analytic.Kind
	Method         Method
	Source, Target analysis.ErrorReport
	Conservation   analysis.ConservationReport
}

// MeasureMappingError maps a populated model field from src onto tgt once and
// measures the error on both meshes against the model
func MeasureMappingError(factory Factory, opts Options, src, tgt *mesh.Mesh, model analytic.Model,
	method Method, log logrus.FieldLogger) (rpt *MappingReport, err error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	srcAlpha, srcGradient := analytic.Build(src, model, true)
	tgtAlpha, _ := analytic.Build(tgt, model, false)
	var mp Mapper
	if mp, err = factory(src, tgt, opts); err != nil {
		return nil, fmt.Errorf("remap: building %s to %s mapper: %w", src.Name, tgt.Name, err)
	}
	if err = mp.Interpolate(tgtAlpha, srcAlpha, srcGradient, method); err != nil {
		return nil, fmt.Errorf("remap: interpolating %s: %w", srcAlpha.Name, err)
	}
	rpt = &MappingReport{
		Kind:   model.Kind(),
		Method: method,
		Source: analysis.Analyze(src, srcAlpha, model),
		Target: analysis.Analyze(tgt, tgtAlpha, model),
		Conservation: analysis.NewConservationReport(
			analysis.Integral(src, srcAlpha), analysis.Integral(tgt, tgtAlpha)),
	}
	l := log.WithFields(logrus.Fields{"kind": model.Kind(), "method": method})
	rpt.Source.Log(l, "Source")
	rpt.Target.Log(l, "Target")
	rpt.Conservation.Log(l, srcAlpha.Name)
	return
}
