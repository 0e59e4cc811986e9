package mesh

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/types"
)

// BoxSpec describes a structured block mesh. A single layer in z produces a
// two dimensional mesh with an empty frontAndBack patch.
type BoxSpec struct {
	N           [3]int     `json:"N"`
	Min         [3]float64 `json:"Min"`
	Max         [3]float64 `json:"Max"`
	Triangulate bool       `json:"Triangulate"` // split each quad footprint into two triangles
}

// UnitSquare is a 2D spec over [0,1]x[0,1], one unit thick and centred on z = 0
func UnitSquare(nx, ny int, triangulate bool) BoxSpec {
	return BoxSpec{
		N:           [3]int{nx, ny, 1},
		Min:         [3]float64{0, 0, -0.5},
		Max:         [3]float64{1, 1, 0.5},
		Triangulate: triangulate,
	}
}

// UnitCube is a 3D spec over [0,1]^3
func UnitCube(nx, ny, nz int) BoxSpec {
	return BoxSpec{
		N:   [3]int{nx, ny, nz},
		Min: [3]float64{0, 0, 0},
		Max: [3]float64{1, 1, 1},
	}
}

func (bs BoxSpec) validate() error {
	for d := 0; d < 3; d++ {
		if bs.N[d] < 1 {
			return fmt.Errorf("box mesh needs at least one cell in direction %d, have %d", d, bs.N[d])
		}
		if !(bs.Max[d] > bs.Min[d]) {
			return fmt.Errorf("box mesh extent in direction %d is empty: [%g, %g]", d, bs.Min[d], bs.Max[d])
		}
	}
	return nil
}

// NewBoxMesh generates the cells and boundary patches for a block mesh.
func NewBoxMesh(name string, bs BoxSpec) (m *Mesh, err error) {
	if err = bs.validate(); err != nil {
		return
	}
	var (
		nx, ny, nz = bs.N[0], bs.N[1], bs.N[2]
		dx         = (bs.Max[0] - bs.Min[0]) / float64(nx)
		dy         = (bs.Max[1] - bs.Min[1]) / float64(ny)
		dz         = (bs.Max[2] - bs.Min[2]) / float64(nz)
		perQuad    = 1
	)
	if bs.Triangulate {
		perQuad = 2
	}
	m = &Mesh{
		Name:        name,
		Cells:       make([]Cell, 0, nx*ny*nz*perQuad),
		NGeometricD: 3,
	}
	if nz == 1 {
		m.NGeometricD = 2
	}
	xAt := func(i int) float64 { return bs.Min[0] + float64(i)*dx }
	yAt := func(j int) float64 { return bs.Min[1] + float64(j)*dy }
	zAt := func(k int) float64 { return bs.Min[2] + float64(k)*dz }
	// Avoid accumulated roundoff on the far boundary so that meshes of the same box coincide exactly
	edge := func(at func(int) float64, n int, max float64) func(int) float64 {
		return func(i int) float64 {
			if i == n {
				return max
			}
			return at(i)
		}
	}
	xAt, yAt, zAt = edge(xAt, nx, bs.Max[0]), edge(yAt, ny, bs.Max[1]), edge(zAt, nz, bs.Max[2])

	cellIndex := func(i, j, k, sub int) int {
		return perQuad*(i+nx*(j+ny*k)) + sub
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				var (
					p00 = geom.Point{X: xAt(i), Y: yAt(j)}
					p10 = geom.Point{X: xAt(i + 1), Y: yAt(j)}
					p11 = geom.Point{X: xAt(i + 1), Y: yAt(j + 1)}
					p01 = geom.Point{X: xAt(i), Y: yAt(j + 1)}
				)
				var rings [][]geom.Point
				switch {
				case !bs.Triangulate:
					rings = [][]geom.Point{{p00, p10, p11, p01}}
				case (i+j)%2 == 0:
					rings = [][]geom.Point{{p00, p10, p11}, {p00, p11, p01}}
				default:
					rings = [][]geom.Point{{p00, p10, p01}, {p10, p11, p01}}
				}
				for _, ring := range rings {
					var c Cell
					if c, err = NewCell(ring, zAt(k), zAt(k+1)); err != nil {
						return nil, err
					}
					m.Cells = append(m.Cells, c)
				}
			}
		}
	}

	// Owner of a side face: the sub cell holding the boundary edge, see the triangle layout above
	sideFace := func(a, b geom.Point, k, owner int) Face {
		z0, z1 := zAt(k), zAt(k+1)
		return Face{
			Centroid: r3.Vec{X: 0.5 * (a.X + b.X), Y: 0.5 * (a.Y + b.Y), Z: 0.5 * (z0 + z1)},
			Area:     math.Hypot(b.X-a.X, b.Y-a.Y) * (z1 - z0),
			Owner:    owner,
		}
	}
	left := Patch{Name: "left", Type: types.BC_Patch}
	right := Patch{Name: "right", Type: types.BC_Patch}
	bottom := Patch{Name: "bottom", Type: types.BC_Patch}
	top := Patch{Name: "top", Type: types.BC_Patch}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			var (
				a, b       = geom.Point{X: xAt(0), Y: yAt(j)}, geom.Point{X: xAt(0), Y: yAt(j + 1)}
				sub        = 0
				c, d       = geom.Point{X: xAt(nx), Y: yAt(j)}, geom.Point{X: xAt(nx), Y: yAt(j + 1)}
				subR       = 0
				evenLeft   = j%2 == 0
				evenRight  = (nx-1+j)%2 == 0
				triangular = bs.Triangulate
			)
			if triangular && evenLeft {
				sub = 1
			}
			if triangular && !evenRight {
				subR = 1
			}
			left.Faces = append(left.Faces, sideFace(a, b, k, cellIndex(0, j, k, sub)))
			right.Faces = append(right.Faces, sideFace(c, d, k, cellIndex(nx-1, j, k, subR)))
		}
		for i := 0; i < nx; i++ {
			var (
				a, b = geom.Point{X: xAt(i), Y: yAt(0)}, geom.Point{X: xAt(i + 1), Y: yAt(0)}
				c, d = geom.Point{X: xAt(i), Y: yAt(ny)}, geom.Point{X: xAt(i + 1), Y: yAt(ny)}
				subT = 0
			)
			if bs.Triangulate {
				subT = 1
			}
			bottom.Faces = append(bottom.Faces, sideFace(a, b, k, cellIndex(i, 0, k, 0)))
			top.Faces = append(top.Faces, sideFace(c, d, k, cellIndex(i, ny-1, k, subT)))
		}
	}
	m.Patches = []Patch{left, right, bottom, top}

	if m.NGeometricD == 2 {
		m.Patches = append(m.Patches, Patch{Name: "frontAndBack", Type: types.BC_Empty})
		return
	}
	back := Patch{Name: "back", Type: types.BC_Patch}
	front := Patch{Name: "front", Type: types.BC_Patch}
	capFace := func(owner int, z float64) Face {
		c := m.Cells[owner]
		return Face{
			Centroid: r3.Vec{X: c.Centroid.X, Y: c.Centroid.Y, Z: z},
			Area:     c.Footprint.Area(),
			Owner:    owner,
		}
	}
	layer := nx * ny * perQuad
	for n := 0; n < layer; n++ {
		back.Faces = append(back.Faces, capFace(n, zAt(0)))
		front.Faces = append(front.Faces, capFace(n+(nz-1)*layer, zAt(nz)))
	}
	m.Patches = append(m.Patches, back, front)
	return
}
