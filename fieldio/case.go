package fieldio

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

type Class string

const (
	ScalarClass Class = "volScalarField"
	VectorClass Class = "volVectorField"
)

// Header leads every field file and is enough to decide whether the field can be read
type Header struct {
	Class      Class
	Name       string
	Mesh       string
	BC         types.BCFLAG
	NCells     int
	PatchSizes []int
}

// Store persists fields by name and time directory
type Store interface {
	HeaderOK(name, time string, class Class) bool
	ReadScalar(name, time string, m *mesh.Mesh) (*fields.Scalar, error)
	WriteScalar(time string, f *fields.Scalar) error
	ReadVector(name, time string, m *mesh.Mesh) (*fields.Vector, error)
	WriteVector(time string, f *fields.Vector) error
	List(time string) ([]Header, error)
}

// Case is a case directory holding one subdirectory per time, each field a gob file named after the field
type Case struct {
	Dir string
}

func NewCase(dir string) *Case {
	return &Case{Dir: dir}
}

func (c *Case) fieldPath(name, time string) string {
	return filepath.Join(c.Dir, time, name)
}

type scalarData struct {
	Internal []float64
	Boundary [][]float64
}

type vectorData struct {
	Internal []r3.Vec
	Boundary [][]r3.Vec
}

func (c *Case) readHeader(name, time string) (h Header, err error) {
	var f *os.File
	if f, err = os.Open(c.fieldPath(name, time)); err != nil {
		return
	}
	defer f.Close()
	err = gob.NewDecoder(f).Decode(&h)
	return
}

// HeaderOK reports whether the field exists and its header decodes with the requested class
func (c *Case) HeaderOK(name, time string, class Class) bool {
	h, err := c.readHeader(name, time)
	return err == nil && h.Class == class && h.Name == name
}

func checkHeader(h Header, class Class, m *mesh.Mesh) error {
	if h.Class != class {
		return fmt.Errorf("field %q is a %s, not a %s", h.Name, h.Class, class)
	}
	if h.NCells != m.NCells() {
		return fmt.Errorf("field %q has %d cells, mesh %q has %d", h.Name, h.NCells, m.Name, m.NCells())
	}
	sizes := m.PatchSizes()
	if len(h.PatchSizes) != len(sizes) {
		return fmt.Errorf("field %q has %d patches, mesh %q has %d", h.Name, len(h.PatchSizes), m.Name, len(sizes))
	}
	for i := range sizes {
		if sizes[i] != h.PatchSizes[i] {
			return fmt.Errorf("field %q patch %d has %d faces, mesh %q has %d",
				h.Name, i, h.PatchSizes[i], m.Name, sizes[i])
		}
	}
	return nil
}

func (c *Case) read(name, time string, class Class, m *mesh.Mesh, data any) (h Header, err error) {
	var f *os.File
	fn := c.fieldPath(name, time)
	if f, err = os.Open(fn); err != nil {
		return
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if err = dec.Decode(&h); err != nil {
		return h, fmt.Errorf("fieldio: reading header of %s: %w", fn, err)
	}
	if err = checkHeader(h, class, m); err != nil {
		return h, fmt.Errorf("fieldio: %s: %w", fn, err)
	}
	if err = dec.Decode(data); err != nil {
		return h, fmt.Errorf("fieldio: reading %s: %w", fn, err)
	}
	return
}

// write goes through a temporary file so a failed write never leaves a readable partial field
func (c *Case) write(time string, h Header, data any) (err error) {
	dir := filepath.Join(c.Dir, time)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	var tmp *os.File
	if tmp, err = os.CreateTemp(dir, "."+h.Name+".*"); err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	enc := gob.NewEncoder(tmp)
	if err = enc.Encode(h); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fieldio: writing %s: %w", h.Name, err)
	}
	if err = enc.Encode(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fieldio: writing %s: %w", h.Name, err)
	}
	if err = tmp.Close(); err != nil {
		return
	}
	return os.Rename(tmp.Name(), c.fieldPath(h.Name, time))
}

func (c *Case) ReadScalar(name, time string, m *mesh.Mesh) (f *fields.Scalar, err error) {
	var (
		data scalarData
		h    Header
	)
	if h, err = c.read(name, time, ScalarClass, m, &data); err != nil {
		return
	}
	f = &fields.Scalar{
		Name:     name,
		Mesh:     m,
		BC:       h.BC,
		Internal: data.Internal,
		Boundary: padBoundary(data.Boundary, len(h.PatchSizes)),
		State:    fields.Read,
	}
	err = f.Validate()
	return
}

func (c *Case) WriteScalar(time string, f *fields.Scalar) (err error) {
	if err = f.Validate(); err != nil {
		return
	}
	h := Header{
		Class:      ScalarClass,
		Name:       f.Name,
		Mesh:       f.Mesh.Name,
		BC:         f.BC,
		NCells:     len(f.Internal),
		PatchSizes: f.Mesh.PatchSizes(),
	}
	if err = c.write(time, h, scalarData{Internal: f.Internal, Boundary: f.Boundary}); err != nil {
		return
	}
	f.State = fields.Written
	return
}

func (c *Case) ReadVector(name, time string, m *mesh.Mesh) (f *fields.Vector, err error) {
	var (
		data vectorData
		h    Header
	)
	if h, err = c.read(name, time, VectorClass, m, &data); err != nil {
		return
	}
	f = &fields.Vector{
		Name:     name,
		Mesh:     m,
		BC:       h.BC,
		Internal: data.Internal,
		Boundary: padBoundary(data.Boundary, len(h.PatchSizes)),
		State:    fields.Read,
	}
	err = f.Validate()
	return
}

func (c *Case) WriteVector(time string, f *fields.Vector) (err error) {
	if err = f.Validate(); err != nil {
		return
	}
	h := Header{
		Class:      VectorClass,
		Name:       f.Name,
		Mesh:       f.Mesh.Name,
		BC:         f.BC,
		NCells:     len(f.Internal),
		PatchSizes: f.Mesh.PatchSizes(),
	}
	if err = c.write(time, h, vectorData{Internal: f.Internal, Boundary: f.Boundary}); err != nil {
		return
	}
	f.State = fields.Written
	return
}

// gob drops empty trailing slices, restore one section per patch
func padBoundary[T any](b [][]T, nPatches int) [][]T {
	for len(b) < nPatches {
		b = append(b, nil)
	}
	for i := range b {
		if b[i] == nil {
			b[i] = []T{}
		}
	}
	return b
}

// List returns the headers of all readable fields in a time directory, sorted by name
func (c *Case) List(time string) (headers []Header, err error) {
	var entries []os.DirEntry
	if entries, err = os.ReadDir(filepath.Join(c.Dir, time)); err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		h, hErr := c.readHeader(e.Name(), time)
		if hErr != nil || h.Name != e.Name() {
			continue
		}
		headers = append(headers, h)
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Name < headers[j].Name })
	return
}

// Time is a time directory with its numeric value
type Time struct {
	Name  string
	Value float64
}

// Times lists the time directories in ascending order. Directories whose names are not numbers, like constant, are skipped.
func (c *Case) Times() (times []Time, err error) {
	var entries []os.DirEntry
	if entries, err = os.ReadDir(c.Dir); err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == mesh.ConstantDir {
			continue
		}
		v, parseErr := strconv.ParseFloat(e.Name(), 64)
		if parseErr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		times = append(times, Time{Name: e.Name(), Value: v})
	}
	sort.SliceStable(times, func(i, j int) bool { return times[i].Value < times[j].Value })
	return
}

var ErrNoTimes = errors.New("no time directories")

// NearestTime returns the time directory closest to t, the earliest on ties
func (c *Case) NearestTime(t float64) (nearest Time, err error) {
	var times []Time
	if times, err = c.Times(); err != nil {
		return
	}
	if len(times) == 0 {
		return nearest, fmt.Errorf("case %s: %w", c.Dir, ErrNoTimes)
	}
	nearestDiff := math.Inf(1)
	for _, tm := range times {
		if diff := math.Abs(tm.Value - t); diff < nearestDiff {
			nearest, nearestDiff = tm, diff
		}
	}
	return
}
