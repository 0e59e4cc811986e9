package analysis

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
)

// Integral is the volume weighted sum of the interior values of f over m.
// Boundary values do not contribute.
func Integral(m *mesh.Mesh, f *fields.Scalar) float64 {
	if len(f.Internal) != m.NCells() {
		panic(fmt.Errorf("analysis.Integral: field %q has %d values, mesh %q has %d cells",
			f.Name, len(f.Internal), m.Name, m.NCells()))
	}
	return floats.Dot(m.Volumes(), f.Internal)
}

// IntegralVector integrates each component of f
func IntegralVector(m *mesh.Mesh, f *fields.Vector) (sum r3.Vec) {
	if len(f.Internal) != m.NCells() {
		panic(fmt.Errorf("analysis.IntegralVector: field %q has %d values, mesh %q has %d cells",
			f.Name, len(f.Internal), m.Name, m.NCells()))
	}
	for i, v := range m.Volumes() {
		sum = r3.Add(sum, r3.Scale(v, f.Internal[i]))
	}
	return
}

type ConservationReport struct {
	SourceIntegral float64
	TargetIntegral float64
	AbsoluteDrift  float64
}

func NewConservationReport(sourceIntegral, targetIntegral float64) ConservationReport {
	return ConservationReport{
		SourceIntegral: sourceIntegral,
		TargetIntegral: targetIntegral,
		AbsoluteDrift:  math.Abs(sourceIntegral - targetIntegral),
	}
}

// RelativeDrift is the drift scaled by the source integral, or the absolute drift when that is zero
func (cr ConservationReport) RelativeDrift() float64 {
	if cr.SourceIntegral == 0 {
		return cr.AbsoluteDrift
	}
	return cr.AbsoluteDrift / math.Abs(cr.SourceIntegral)
}

// Log reports the integrals. Drift is a diagnostic and is never treated as a failure.
func (cr ConservationReport) Log(log logrus.FieldLogger, label string) {
	log.WithFields(logrus.Fields{
		"field":          label,
		"sourceIntegral": cr.SourceIntegral,
		"targetIntegral": cr.TargetIntegral,
		"drift":          cr.AbsoluteDrift,
		"relativeDrift":  cr.RelativeDrift(),
	}).Info("conservation")
}
