package fields

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

func square(t *testing.T) *mesh.Mesh {
	m, err := mesh.NewBoxMesh("square", mesh.UnitSquare(3, 2, false))
	require.NoError(t, err)
	return m
}

func TestNewScalar(t *testing.T) {
	m := square(t)
	f := NewScalar("alpha", m, types.BC_FixedValue)
	require.NoError(t, f.Validate())
	assert.Equal(t, NoRead, f.State)
	assert.Len(t, f.Internal, 6)
	// left, right, bottom, top, frontAndBack(empty)
	var sizes []int
	for _, b := range f.Boundary {
		sizes = append(sizes, len(b))
	}
	assert.Equal(t, []int{2, 2, 3, 3, 0}, sizes)

	f.Internal = f.Internal[:5]
	assert.Error(t, f.Validate())
	f = NewScalar("alpha", m, types.BC_FixedValue)
	f.Boundary[1] = append(f.Boundary[1], 1)
	assert.Error(t, f.Validate())
	f.Mesh = nil
	assert.Error(t, f.Validate())
}

func TestVectorComponents(t *testing.T) {
	m := square(t)
	v := NewVector("grad(alpha)", m, types.BC_ZeroGradient)
	require.NoError(t, v.Validate())
	for i := range v.Internal {
		v.Internal[i] = r3.Vec{X: float64(i), Y: 10 * float64(i), Z: -1}
	}
	v.Boundary[0][1] = r3.Vec{X: 7, Y: 8, Z: 9}

	y := v.Component(1)
	assert.Equal(t, "grad(alpha).y", y.Name)
	assert.Equal(t, []float64{0, 10, 20, 30, 40, 50}, y.Internal)
	assert.Equal(t, 8., y.Boundary[0][1])

	for i := range y.Internal {
		y.Internal[i] *= 2
	}
	v.SetComponent(2, y)
	assert.Equal(t, r3.Vec{X: 3, Y: 30, Z: 60}, v.Internal[3])
	assert.Equal(t, r3.Vec{X: 7, Y: 8, Z: 8}, v.Boundary[0][1])

	assert.Panics(t, func() { v.Component(3) })
	other, err := mesh.NewBoxMesh("other", mesh.UnitSquare(2, 2, false))
	require.NoError(t, err)
	assert.Panics(t, func() { v.SetComponent(0, NewScalar("short", other, types.BC_None)) })
}

func TestClone(t *testing.T) {
	m := square(t)
	f := NewScalar("alpha", m, types.BC_FixedValue)
	f.Internal[2] = 4
	f.Boundary[3][0] = 1
	f.State = Read
	c := f.Clone()
	assert.True(t, cmp.Equal(f.Internal, c.Internal))
	assert.True(t, cmp.Equal(f.Boundary, c.Boundary))
	assert.Same(t, f.Mesh, c.Mesh)
	c.Internal[2] = 5
	c.Boundary[3][0] = 2
	assert.Equal(t, 4., f.Internal[2])
	assert.Equal(t, 1., f.Boundary[3][0])

	v := NewVector("grad(alpha)", m, types.BC_ZeroGradient)
	v.Internal[0] = r3.Vec{X: 1}
	vc := v.Clone()
	assert.Empty(t, cmp.Diff(v.Boundary, vc.Boundary))
	vc.Internal[0].X = 2
	assert.Equal(t, 1., v.Internal[0].X)

	// The empty frontAndBack section stays an empty slice, not nil
	for p := range f.Boundary {
		assert.Equal(t, f.Boundary[p] == nil, c.Boundary[p] == nil, "patch %d", p)
		assert.Equal(t, v.Boundary[p] == nil, vc.Boundary[p] == nil, "patch %d", p)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NoRead", NoRead.String())
	assert.Equal(t, "Written", Written.String())
	assert.Equal(t, "State(9)", State(9).String())
}
