package mesh

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/types"
	"github.com/notargets/gomapfields/utils"
)

// Cell is a convex polygon footprint in the x-y plane extruded over [ZMin, ZMax].
type Cell struct {
	Footprint  geom.Polygon // single open ring, counter-clockwise
	ZMin, ZMax float64
	Volume     float64
	Centroid   r3.Vec
}

// Face is a boundary face, owned by exactly one cell.
type Face struct {
	Centroid r3.Vec
	Area     float64
	Owner    int
}

// Patch is an ordered group of boundary faces sharing a boundary type.
type Patch struct {
	Name  string
	Type  types.BCFLAG
	Faces []Face
}

// Mesh represents a finite volume mesh: cells with geometry plus boundary patches
type Mesh struct {
	Name        string
	Cells       []Cell
	Patches     []Patch
	NGeometricD int // number of resolved directions, 2 for one-layer extruded meshes

	volumes   []float64
	centroids []r3.Vec
}

// NewCell builds a cell from a footprint ring, fixing the winding order to
// counter-clockwise and computing volume and centroid.
func NewCell(ring []geom.Point, zMin, zMax float64) (c Cell, err error) {
	if len(ring) < 3 {
		err = fmt.Errorf("cell footprint needs at least 3 points, have %d", len(ring))
		return
	}
	if zMax <= zMin {
		err = fmt.Errorf("cell z extent is empty: [%g, %g]", zMin, zMax)
		return
	}
	pts := make([]geom.Point, len(ring))
	copy(pts, ring)
	if len(pts) > 3 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if SignedArea(pts) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	c.Footprint = geom.Polygon{pts}
	area := c.Footprint.Area()
	if area < utils.AREATOL {
		err = fmt.Errorf("degenerate cell footprint, area = %g", area)
		return
	}
	cen := c.Footprint.Centroid()
	c.ZMin, c.ZMax = zMin, zMax
	c.Volume = area * (zMax - zMin)
	c.Centroid = r3.Vec{X: cen.X, Y: cen.Y, Z: 0.5 * (zMin + zMax)}
	return
}

// SignedArea is positive for counter-clockwise rings.
func SignedArea(ring []geom.Point) (a float64) {
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return 0.5 * a
}

func (m *Mesh) NCells() int { return len(m.Cells) }

// Volumes returns the cell volumes in cell order. The slice is shared, do not modify.
func (m *Mesh) Volumes() []float64 {
	if len(m.volumes) != len(m.Cells) {
		m.volumes = make([]float64, len(m.Cells))
		for i, c := range m.Cells {
			m.volumes[i] = c.Volume
		}
	}
	return m.volumes
}

// Centroids returns the cell centroids in cell order. The slice is shared, do not modify.
func (m *Mesh) Centroids() []r3.Vec {
	if len(m.centroids) != len(m.Cells) {
		m.centroids = make([]r3.Vec, len(m.Cells))
		for i, c := range m.Cells {
			m.centroids[i] = c.Centroid
		}
	}
	return m.centroids
}

// PatchSizes is the number of stored boundary values per patch.
func (m *Mesh) PatchSizes() (sizes []int) {
	sizes = make([]int, len(m.Patches))
	for i, p := range m.Patches {
		if p.Type.StoresValues() {
			sizes[i] = len(p.Faces)
		}
	}
	return
}

func (m *Mesh) NBoundaryFaces() (n int) {
	for _, p := range m.Patches {
		n += len(p.Faces)
	}
	return
}

func (m *Mesh) TotalVolume() (v float64) {
	for _, vol := range m.Volumes() {
		v += vol
	}
	return
}

// Bounds returns the axis aligned extent of all cells.
func (m *Mesh) Bounds() (min, max r3.Vec) {
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, c := range m.Cells {
		b := c.Footprint.Bounds()
		min.X, max.X = math.Min(min.X, b.Min.X), math.Max(max.X, b.Max.X)
		min.Y, max.Y = math.Min(min.Y, b.Min.Y), math.Max(max.Y, b.Max.Y)
		min.Z, max.Z = math.Min(min.Z, c.ZMin), math.Max(max.Z, c.ZMax)
	}
	return
}

// Validate checks the geometric invariants the harness relies on.
func (m *Mesh) Validate() error {
	if len(m.Cells) == 0 {
		return fmt.Errorf("mesh %q has no cells", m.Name)
	}
	for i, c := range m.Cells {
		if !(c.Volume > 0) {
			return fmt.Errorf("mesh %q cell %d has non-positive volume %g", m.Name, i, c.Volume)
		}
	}
	names := make(map[string]struct{}, len(m.Patches))
	for _, p := range m.Patches {
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("mesh %q has duplicate patch %q", m.Name, p.Name)
		}
		names[p.Name] = struct{}{}
		for _, f := range p.Faces {
			if f.Owner < 0 || f.Owner >= len(m.Cells) {
				return fmt.Errorf("mesh %q patch %q face owner %d out of range", m.Name, p.Name, f.Owner)
			}
		}
	}
	if m.NGeometricD != 2 && m.NGeometricD != 3 {
		return fmt.Errorf("mesh %q has unsupported geometric dimension %d", m.Name, m.NGeometricD)
	}
	return nil
}

// LogStatistics logs mesh statistics
func (m *Mesh) LogStatistics(log logrus.FieldLogger) {
	min, max := m.Bounds()
	log.WithFields(logrus.Fields{
		"mesh":          m.Name,
		"cells":         m.NCells(),
		"patches":       len(m.Patches),
		"boundaryFaces": m.NBoundaryFaces(),
		"dimensions":    m.NGeometricD,
		"volume":        m.TotalVolume(),
		"min":           fmt.Sprintf("(%g %g %g)", min.X, min.Y, min.Z),
		"max":           fmt.Sprintf("(%g %g %g)", max.X, max.Y, max.Z),
	}).Info("mesh statistics")
}
