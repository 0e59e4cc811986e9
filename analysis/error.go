package analysis

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gomapfields/analytic"
	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

const ErrorFieldName = "iError"

type ErrorReport struct {
	L2Error          float64
	LinfError        float64
	EffectiveSpacing float64
	CellCount        int
	PerCellAbsError  *fields.Scalar
}

// EffectiveSpacing is cbrt(1/n), the cell size of an isotropic mesh of n cells on a unit volume
func EffectiveSpacing(nCells int) float64 {
	return math.Cbrt(1 / float64(nCells))
}

// Analyze compares computed to the exact model value at each cell centroid
func Analyze(m *mesh.Mesh, computed *fields.Scalar, model analytic.Model) (er ErrorReport) {
	n := m.NCells()
	if n == 0 {
		panic(fmt.Errorf("analysis.Analyze: mesh %q has no cells", m.Name))
	}
	if len(computed.Internal) != n {
		panic(fmt.Errorf("analysis.Analyze: field %q has %d values, mesh %q has %d cells",
			computed.Name, len(computed.Internal), m.Name, n))
	}
	var (
		sumSq float64
		iErr  = fields.NewScalar(ErrorFieldName, m, types.BC_FixedValue)
	)
	for i, x := range m.Centroids() {
		e := math.Abs(computed.Internal[i] - model.Value(x))
		iErr.Internal[i] = e
		sumSq += e * e
		er.LinfError = math.Max(er.LinfError, e)
	}
	er.L2Error = math.Sqrt(sumSq / float64(n))
	er.EffectiveSpacing = EffectiveSpacing(n)
	er.CellCount = n
	er.PerCellAbsError = iErr
	return
}

func (er ErrorReport) SpacingSquared() float64 {
	return er.EffectiveSpacing * er.EffectiveSpacing
}

func (er ErrorReport) Log(log logrus.FieldLogger, label string) {
	log.WithFields(logrus.Fields{
		"mesh":  label,
		"cells": er.CellCount,
		"L2":    er.L2Error,
		"Linf":  er.LinfError,
		"dx":    er.EffectiveSpacing,
		"dx2":   er.SpacingSquared(),
	}).Info("interpolation error")
}
