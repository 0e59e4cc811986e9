package analytic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{CONSTANT, LINEAR, SINUSOID_2D, SINUSOID_3D, COSINE_HILL_2D} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.Equal(t, k, NewModel(k).Kind())
	}
	k, err := ParseKind(" cosine_hill_2d ")
	require.NoError(t, err)
	assert.Equal(t, COSINE_HILL_2D, k)

	_, err = ParseKind("PARABOLA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARABOLA")
	assert.Contains(t, err.Error(), "ParseKind")

	assert.Equal(t, "Kind(42)", Kind(42).String())
	assert.PanicsWithError(t, "analytic.NewModel: invalid test field kind Kind(42)", func() { NewModel(Kind(42)) })
}

func TestModelValues(t *testing.T) {
	var (
		center = r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
		q      = r3.Vec{X: 0.25, Y: 0.125, Z: 0}
	)
	assert.Equal(t, 2., NewModel(CONSTANT).Value(center))
	assert.Equal(t, r3.Vec{}, NewModel(CONSTANT).Gradient(center))

	lin := NewModel(LINEAR)
	assert.InDelta(t, 3.0, lin.Value(center), 1e-15)
	assert.Equal(t, r3.Vec{X: 2, Y: 3, Z: 1}, lin.Gradient(q))

	s2 := NewModel(SINUSOID_2D)
	assert.InDelta(t, 1+math.Sin(math.Pi/2)*math.Sin(math.Pi/4), s2.Value(q), 1e-15)
	g := s2.Gradient(q)
	assert.InDelta(t, 2*math.Pi*math.Cos(math.Pi/2)*math.Sin(math.Pi/4), g.X, 1e-14)
	assert.InDelta(t, 2*math.Pi*math.Sin(math.Pi/2)*math.Cos(math.Pi/4), g.Y, 1e-14)
	assert.Equal(t, 0., g.Z)

	s3 := NewModel(SINUSOID_3D)
	assert.InDelta(t, 1., s3.Value(q), 1e-15, "sin(0) kills the product")
	p := r3.Vec{X: 0.125, Y: 0.25, Z: 0.125}
	g = s3.Gradient(p)
	s, c := math.Sin(math.Pi/4), math.Cos(math.Pi/4)
	assert.InDelta(t, 2*math.Pi*c*1*s, g.X, 1e-14)
	assert.InDelta(t, 0., g.Y, 1e-14)
	assert.InDelta(t, 2*math.Pi*s*1*c, g.Z, 1e-14)

	hill := NewModel(COSINE_HILL_2D)
	assert.Equal(t, 3., hill.Value(r3.Vec{}))
	// r = L puts the point at the bottom of the hill
	edge := r3.Vec{X: 0.5, Y: 0.5}
	assert.InDelta(t, 1., hill.Value(edge), 1e-15)
	assert.InDelta(t, 0., r3.Norm(hill.Gradient(edge)), 1e-14)
}

// Central differences must agree with the exact gradients
func TestGradientsMatchValues(t *testing.T) {
	const h = 1e-6
	points := []r3.Vec{
		{X: 0.1, Y: 0.2, Z: 0.3},
		{X: 0.37, Y: 0.81, Z: 0.55},
		{X: -0.2, Y: 0.45, Z: 0.05},
	}
	for _, k := range []Kind{CONSTANT, LINEAR, SINUSOID_2D, SINUSOID_3D, COSINE_HILL_2D} {
		m := NewModel(k)
		for _, x := range points {
			g := m.Gradient(x)
			fd := func(d r3.Vec) float64 {
				return (m.Value(r3.Add(x, r3.Scale(h, d))) - m.Value(r3.Sub(x, r3.Scale(h, d)))) / (2 * h)
			}
			assert.InDeltaf(t, fd(r3.Vec{X: 1}), g.X, 1e-6, "%s d/dx at %v", k, x)
			assert.InDeltaf(t, fd(r3.Vec{Y: 1}), g.Y, 1e-6, "%s d/dy at %v", k, x)
			assert.InDeltaf(t, fd(r3.Vec{Z: 1}), g.Z, 1e-6, "%s d/dz at %v", k, x)
		}
	}
}

func TestCosineHillCenter(t *testing.T) {
	hill := CosineHill2D{Center: r3.Vec{X: 0.5, Y: 0.5}, L: 0.25}
	g := hill.Gradient(r3.Vec{X: 0.5, Y: 0.5})
	assert.Equal(t, r3.Vec{}, g)
	assert.False(t, math.IsNaN(g.X))
	g = hill.Gradient(r3.Vec{X: 0.5 + 1e-13, Y: 0.5})
	assert.Equal(t, r3.Vec{}, g)
	assert.Equal(t, 3., hill.Value(r3.Vec{X: 0.5, Y: 0.5}))
}

func TestBuildLinearCube(t *testing.T) {
	m, err := mesh.NewBoxMesh("cube", mesh.UnitCube(2, 2, 2))
	require.NoError(t, err)
	alpha, grad := Build(m, NewModel(LINEAR), true)
	require.NoError(t, alpha.Validate())
	require.NoError(t, grad.Validate())
	assert.Equal(t, FieldName, alpha.Name)
	assert.Equal(t, GradFieldName, grad.Name)
	assert.Equal(t, types.BC_FixedValue, alpha.BC)
	assert.Equal(t, types.BC_ZeroGradient, grad.BC)
	assert.Equal(t, fields.NoRead, alpha.State)
	assert.Equal(t, fields.NoRead, grad.State)

	for i, x := range m.Centroids() {
		assert.InDelta(t, 2*x.X+3*x.Y+x.Z, alpha.Internal[i], 1e-14)
		assert.Equal(t, r3.Vec{X: 2, Y: 3, Z: 1}, grad.Internal[i])
	}
	// The mean of the eight centroid values is the value at the cube center
	var sum float64
	for _, v := range alpha.Internal {
		sum += v
	}
	assert.InDelta(t, 3.0, sum/8, 1e-14)

	for p, patch := range m.Patches {
		for i, face := range patch.Faces {
			x := face.Centroid
			assert.InDelta(t, 2*x.X+3*x.Y+x.Z, alpha.Boundary[p][i], 1e-14)
			assert.Equal(t, r3.Vec{}, grad.Boundary[p][i], "gradient boundaries are never populated")
		}
	}
}

func TestBuildUnpopulated(t *testing.T) {
	m, err := mesh.NewBoxMesh("square", mesh.UnitSquare(4, 4, true))
	require.NoError(t, err)
	alpha, grad := Build(m, NewModel(SINUSOID_2D), false)
	for _, v := range alpha.Internal {
		assert.Equal(t, 0., v)
	}
	for _, b := range alpha.Boundary {
		for _, v := range b {
			assert.Equal(t, 0., v)
		}
	}
	for _, g := range grad.Internal {
		assert.Equal(t, r3.Vec{}, g)
	}
	// Empty patch has no storage to initialise
	InitBoundary(m, NewModel(CONSTANT), alpha)
	for p, b := range alpha.Boundary {
		assert.Len(t, b, m.PatchSizes()[p])
		for _, v := range b {
			assert.Equal(t, 2., v)
		}
	}
}
