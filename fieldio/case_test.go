package fieldio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

func square(t *testing.T, nx, ny int) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewBoxMesh("square", mesh.UnitSquare(nx, ny, true))
	require.NoError(t, err)
	return m
}

func TestScalarRoundTrip(t *testing.T) {
	var (
		c = NewCase(t.TempDir())
		m = square(t, 3, 2)
		f = fields.NewScalar("alpha", m, types.BC_FixedValue)
	)
	for i := range f.Internal {
		f.Internal[i] = float64(i) * 0.5
	}
	for p := range f.Boundary {
		for i := range f.Boundary[p] {
			f.Boundary[p][i] = float64(100*p + i)
		}
	}
	assert.False(t, c.HeaderOK("alpha", "0", ScalarClass))
	require.NoError(t, c.WriteScalar("0", f))
	assert.Equal(t, fields.Written, f.State)
	assert.True(t, c.HeaderOK("alpha", "0", ScalarClass))
	assert.False(t, c.HeaderOK("alpha", "0", VectorClass))
	assert.False(t, c.HeaderOK("alpha", "1", ScalarClass))

	g, err := c.ReadScalar("alpha", "0", m)
	require.NoError(t, err)
	assert.Equal(t, fields.Read, g.State)
	assert.Equal(t, types.BC_FixedValue, g.BC)
	assert.Same(t, m, g.Mesh)
	assert.Empty(t, cmp.Diff(f.Internal, g.Internal))
	assert.Empty(t, cmp.Diff(f.Boundary, g.Boundary))

	// Shape mismatch against another mesh
	_, err = c.ReadScalar("alpha", "0", square(t, 4, 2))
	assert.Error(t, err)
	_, err = c.ReadVector("alpha", "0", m)
	assert.Error(t, err)
}

func TestVectorRoundTrip(t *testing.T) {
	var (
		c = NewCase(t.TempDir())
		m = square(t, 2, 2)
		v = fields.NewVector("grad(alpha)", m, types.BC_ZeroGradient)
	)
	for i := range v.Internal {
		v.Internal[i] = r3.Vec{X: float64(i), Y: -1, Z: 0.25}
	}
	require.NoError(t, c.WriteVector("0.5", v))
	assert.True(t, c.HeaderOK("grad(alpha)", "0.5", VectorClass))
	w, err := c.ReadVector("grad(alpha)", "0.5", m)
	require.NoError(t, err)
	assert.Equal(t, types.BC_ZeroGradient, w.BC)
	assert.Empty(t, cmp.Diff(v.Internal, w.Internal))
	require.NoError(t, w.Validate())
}

func TestWriteRejectsBadShape(t *testing.T) {
	c := NewCase(t.TempDir())
	f := fields.NewScalar("alpha", square(t, 2, 2), types.BC_FixedValue)
	f.Internal = f.Internal[1:]
	assert.Error(t, c.WriteScalar("0", f))
	assert.False(t, c.HeaderOK("alpha", "0", ScalarClass))
	assert.Equal(t, fields.NoRead, f.State)
}

func TestHeaderOKCorrupt(t *testing.T) {
	c := NewCase(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(c.Dir, "0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir, "0", "alpha"), []byte("FoamFile {}"), 0o644))
	assert.False(t, c.HeaderOK("alpha", "0", ScalarClass))
	headers, err := c.List("0")
	require.NoError(t, err)
	assert.Empty(t, headers)
}

func TestList(t *testing.T) {
	var (
		c = NewCase(t.TempDir())
		m = square(t, 2, 2)
	)
	require.NoError(t, c.WriteScalar("0", fields.NewScalar("p", m, types.BC_ZeroGradient)))
	require.NoError(t, c.WriteScalar("0", fields.NewScalar("T", m, types.BC_FixedValue)))
	require.NoError(t, c.WriteVector("0", fields.NewVector("U", m, types.BC_FixedValue)))
	headers, err := c.List("0")
	require.NoError(t, err)
	require.Len(t, headers, 3)
	assert.Equal(t, "T", headers[0].Name)
	assert.Equal(t, "U", headers[1].Name)
	assert.Equal(t, VectorClass, headers[1].Class)
	assert.Equal(t, "p", headers[2].Name)
	assert.Equal(t, m.NCells(), headers[2].NCells)
	assert.Equal(t, m.PatchSizes(), headers[2].PatchSizes)
	assert.Equal(t, "square", headers[2].Mesh)
}

func TestNearestTime(t *testing.T) {
	c := NewCase(t.TempDir())
	_, err := c.NearestTime(0)
	assert.True(t, errors.Is(err, ErrNoTimes))

	for _, d := range []string{"constant", "0", "0.5", "10", "2", "system"} {
		require.NoError(t, os.MkdirAll(filepath.Join(c.Dir, d), 0o755))
	}
	times, err := c.Times()
	require.NoError(t, err)
	var names []string
	for _, tm := range times {
		names = append(names, tm.Name)
	}
	assert.Equal(t, []string{"0", "0.5", "2", "10"}, names)

	testCases := []struct {
		t    float64
		want string
	}{
		{-3, "0"},
		{0.2, "0"},
		{0.3, "0.5"},
		{1.25, "0.5"},
		{5, "2"},
		{1e9, "10"},
	}
	for _, tc := range testCases {
		got, err := c.NearestTime(tc.t)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, got.Name, "nearest to %g", tc.t)
	}
}
