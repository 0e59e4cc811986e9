package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is a named sparse matrix assembled entry by entry, then converted with ToCSR
type DOK struct {
	M    *sparse.DOK
	name string
}

func NewDOK(nr, nc int, name string) (R DOK) {
	R = DOK{
		M:    sparse.NewDOK(nr, nc),
		name: name,
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m DOK) Set(i, j int, val float64) {
	m.M.Set(i, j, val)
}

// Add accumulates into an entry
func (m DOK) Add(i, j int, val float64) {
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// ToCSR compresses the matrix with the columns of each row in ascending order,
// so that products are reproducible from run to run
func (m DOK) ToCSR() CSR {
	type entry struct {
		i, j int
		v    float64
	}
	var (
		nr, nc  = m.Dims()
		entries = make([]entry, 0, m.M.NNZ())
	)
	m.M.DoNonZero(func(i, j int, v float64) {
		entries = append(entries, entry{i, j, v})
	})
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].i != entries[b].i {
			return entries[a].i < entries[b].i
		}
		return entries[a].j < entries[b].j
	})
	var (
		indptr = make([]int, nr+1)
		ind    = make([]int, len(entries))
		data   = make([]float64, len(entries))
	)
	for p, e := range entries {
		indptr[e.i+1]++
		ind[p], data[p] = e.j, e.v
	}
	for i := 0; i < nr; i++ {
		indptr[i+1] += indptr[i]
	}
	return CSR{
		M:    sparse.NewCSR(nr, nc, indptr, ind, data),
		name: m.name,
	}
}

// CSR is a read only compressed row matrix
type CSR struct {
	M    *sparse.CSR
	name string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) Name() string                  { return m.name }
func (m CSR) NNZ() int                      { return m.M.NNZ() }

// DoRow calls fn for every stored entry of row i
func (m CSR) DoRow(i int, fn func(j int, v float64)) {
	m.M.DoRowNonZero(i, func(_, j int, v float64) { fn(j, v) })
}

// MulVecTo sets y = A x
func (m CSR) MulVecTo(y, x []float64) {
	nr, nc := m.Dims()
	if len(y) != nr || len(x) != nc {
		panic(fmt.Errorf("dimension mismatch multiplying %q: (%d x %d) by %d into %d",
			m.name, nr, nc, len(x), len(y)))
	}
	for i := range y {
		y[i] = 0
	}
	m.M.MulVecTo(y, false, x)
}

// RowSums returns the sum of the stored entries of each row
func (m CSR) RowSums() (sums []float64) {
	nr, nc := m.Dims()
	sums = make([]float64, nr)
	m.M.MulVecTo(sums, false, ones(nc))
	return
}

// ColSums returns the sum of the stored entries of each column
func (m CSR) ColSums() (sums []float64) {
	nr, nc := m.Dims()
	sums = make([]float64, nc)
	m.M.MulVecTo(sums, true, ones(nr))
	return
}

func ones(n int) (x []float64) {
	x = make([]float64, n)
	for i := range x {
		x[i] = 1
	}
	return
}

// RawCSR is the exported storage of a CSR, suitable for gob encoding
type RawCSR struct {
	Name         string
	NRows, NCols int
	Indptr, Ind  []int
	Data         []float64
}

func (m CSR) Raw() RawCSR {
	var (
		nr, nc = m.Dims()
		raw    = m.M.RawMatrix()
		nnz    = raw.Indptr[nr]
	)
	return RawCSR{
		Name:   m.name,
		NRows:  nr,
		NCols:  nc,
		Indptr: append([]int(nil), raw.Indptr[:nr+1]...),
		Ind:    append([]int(nil), raw.Ind[:nnz]...),
		Data:   append([]float64(nil), raw.Data[:nnz]...),
	}
}

func (r RawCSR) ToCSR() (m CSR, err error) {
	if len(r.Indptr) != r.NRows+1 || len(r.Ind) != len(r.Data) || r.Indptr[r.NRows] != len(r.Data) {
		err = fmt.Errorf("corrupt sparse matrix %q: %d rows, %d row pointers, %d indices, %d values",
			r.Name, r.NRows, len(r.Indptr), len(r.Ind), len(r.Data))
		return
	}
	for _, j := range r.Ind {
		if j < 0 || j >= r.NCols {
			err = fmt.Errorf("corrupt sparse matrix %q: column %d out of range [0,%d)", r.Name, j, r.NCols)
			return
		}
	}
	m = CSR{
		M:    sparse.NewCSR(r.NRows, r.NCols, r.Indptr, r.Ind, r.Data),
		name: r.Name,
	}
	return
}
