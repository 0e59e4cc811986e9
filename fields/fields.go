package fields

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

// State tracks where a field's values came from
type State uint8

const (
	NoRead  State = iota // freshly allocated, values not loaded from storage
	Read                 // loaded from storage
	Written              // persisted after the last modification
)

func (s State) String() string {
	switch s {
	case NoRead:
		return "NoRead"
	case Read:
		return "Read"
	case Written:
		return "Written"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Scalar is a cell-centred scalar field with one boundary section per mesh patch
type Scalar struct {
	Name     string
	Mesh     *mesh.Mesh
	BC       types.BCFLAG
	Internal []float64
	Boundary [][]float64 // indexed [patch][face]
	State    State
}

// Vector is a cell-centred 3-vector field
type Vector struct {
	Name     string
	Mesh     *mesh.Mesh
	BC       types.BCFLAG
	Internal []r3.Vec
	Boundary [][]r3.Vec
	State    State
}

// NewScalar allocates a zero scalar field on m
func NewScalar(name string, m *mesh.Mesh, bc types.BCFLAG) (f *Scalar) {
	f = &Scalar{
		Name:     name,
		Mesh:     m,
		BC:       bc,
		Internal: make([]float64, m.NCells()),
	}
	sizes := m.PatchSizes()
	f.Boundary = make([][]float64, len(sizes))
	for i, n := range sizes {
		f.Boundary[i] = make([]float64, n)
	}
	return
}

// NewVector allocates a zero vector field on m
func NewVector(name string, m *mesh.Mesh, bc types.BCFLAG) (f *Vector) {
	f = &Vector{
		Name:     name,
		Mesh:     m,
		BC:       bc,
		Internal: make([]r3.Vec, m.NCells()),
	}
	sizes := m.PatchSizes()
	f.Boundary = make([][]r3.Vec, len(sizes))
	for i, n := range sizes {
		f.Boundary[i] = make([]r3.Vec, n)
	}
	return
}

func checkShape(name string, m *mesh.Mesh, nInternal int, boundarySizes []int) error {
	if m == nil {
		return fmt.Errorf("field %q is not attached to a mesh", name)
	}
	if nInternal != m.NCells() {
		return fmt.Errorf("field %q has %d internal values, mesh %q has %d cells",
			name, nInternal, m.Name, m.NCells())
	}
	sizes := m.PatchSizes()
	if len(boundarySizes) != len(sizes) {
		return fmt.Errorf("field %q has %d boundary sections, mesh %q has %d patches",
			name, len(boundarySizes), m.Name, len(sizes))
	}
	for i, n := range sizes {
		if boundarySizes[i] != n {
			return fmt.Errorf("field %q boundary %q has %d values, expected %d",
				name, m.Patches[i].Name, boundarySizes[i], n)
		}
	}
	return nil
}

// Validate checks that the field is shaped to its mesh
func (f *Scalar) Validate() error {
	sizes := make([]int, len(f.Boundary))
	for i, b := range f.Boundary {
		sizes[i] = len(b)
	}
	return checkShape(f.Name, f.Mesh, len(f.Internal), sizes)
}

func (f *Vector) Validate() error {
	sizes := make([]int, len(f.Boundary))
	for i, b := range f.Boundary {
		sizes[i] = len(b)
	}
	return checkShape(f.Name, f.Mesh, len(f.Internal), sizes)
}

// Clone is a deep copy sharing only the mesh
func (f *Scalar) Clone() (c *Scalar) {
	c = &Scalar{
		Name:     f.Name,
		Mesh:     f.Mesh,
		BC:       f.BC,
		Internal: make([]float64, len(f.Internal)),
		Boundary: make([][]float64, len(f.Boundary)),
		State:    f.State,
	}
	copy(c.Internal, f.Internal)
	for i, b := range f.Boundary {
		c.Boundary[i] = make([]float64, len(b))
		copy(c.Boundary[i], b)
	}
	return
}

func (f *Vector) Clone() (c *Vector) {
	c = &Vector{
		Name:     f.Name,
		Mesh:     f.Mesh,
		BC:       f.BC,
		Internal: make([]r3.Vec, len(f.Internal)),
		Boundary: make([][]r3.Vec, len(f.Boundary)),
		State:    f.State,
	}
	copy(c.Internal, f.Internal)
	for i, b := range f.Boundary {
		c.Boundary[i] = make([]r3.Vec, len(b))
		copy(c.Boundary[i], b)
	}
	return
}

func component(v r3.Vec, d int) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic(fmt.Errorf("vector component %d out of range [0,2]", d))
}

func setComponent(v *r3.Vec, d int, val float64) {
	switch d {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	case 2:
		v.Z = val
	default:
		panic(fmt.Errorf("vector component %d out of range [0,2]", d))
	}
}

// Component extracts direction d (0=x, 1=y, 2=z) as a scalar field named name.component
func (f *Vector) Component(d int) (s *Scalar) {
	s = NewScalar(fmt.Sprintf("%s.%s", f.Name, [3]string{"x", "y", "z"}[d]), f.Mesh, f.BC)
	for i, v := range f.Internal {
		s.Internal[i] = component(v, d)
	}
	for p, b := range f.Boundary {
		for i, v := range b {
			s.Boundary[p][i] = component(v, d)
		}
	}
	s.State = f.State
	return
}

// SetComponent overwrites direction d from a scalar field of the same shape
func (f *Vector) SetComponent(d int, s *Scalar) {
	if len(s.Internal) != len(f.Internal) || len(s.Boundary) != len(f.Boundary) {
		panic(fmt.Errorf("fields.SetComponent: %q and %q have different shapes", s.Name, f.Name))
	}
	for i := range f.Internal {
		setComponent(&f.Internal[i], d, s.Internal[i])
	}
	for p := range f.Boundary {
		for i := range f.Boundary[p] {
			setComponent(&f.Boundary[p][i], d, s.Boundary[p][i])
		}
	}
}
