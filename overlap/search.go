package overlap

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/utils"
)

// footprint is a source cell in the spatial index
type footprint struct {
	geom.Polygon
	i int
}

func newFootprintIndex(m *mesh.Mesh) *rtree.Rtree {
	tree := rtree.NewTree(25, 50)
	for i, c := range m.Cells {
		tree.Insert(&footprint{Polygon: c.Footprint, i: i})
	}
	return tree
}

// piece is the intersection of a target cell with a source cell
type piece struct {
	tgt, src int
	volume   float64
	centroid r3.Vec
}

// overlapsOf returns the non-empty intersections of target cell j with the source cells
func overlapsOf(j int, tc mesh.Cell, index *rtree.Rtree, src *mesh.Mesh) (pieces []piece) {
	for _, s := range index.SearchIntersect(tc.Footprint.Bounds()) {
		var (
			fp    = s.(*footprint)
			sc    = src.Cells[fp.i]
			zLow  = math.Max(tc.ZMin, sc.ZMin)
			zHigh = math.Min(tc.ZMax, sc.ZMax)
		)
		if zHigh-zLow <= 0 {
			continue
		}
		ring := clipConvex(tc.Footprint[0], sc.Footprint[0])
		if ring == nil {
			continue
		}
		poly := geom.Polygon{ring}
		area := poly.Area()
		if area < utils.AREATOL {
			continue
		}
		c := poly.Centroid()
		pieces = append(pieces, piece{
			tgt:      j,
			src:      fp.i,
			volume:   area * (zHigh - zLow),
			centroid: r3.Vec{X: c.X, Y: c.Y, Z: 0.5 * (zLow + zHigh)},
		})
	}
	return
}

// centroid is a source cell centroid in the k-d tree
type centroid struct {
	r3.Vec
	i int
}

func (p centroid) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(centroid)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	}
	panic("illegal dimension")
}

func (p centroid) Dims() int { return 3 }

// Distance is the squared Euclidean distance
func (p centroid) Distance(c kdtree.Comparable) float64 {
	q := c.(centroid)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

type centroids []centroid

func (p centroids) Index(i int) kdtree.Comparable         { return p[i] }
func (p centroids) Len() int                              { return len(p) }
func (p centroids) Pivot(d kdtree.Dim) int                { return plane{Dim: d, centroids: p}.Pivot() }
func (p centroids) Slice(start, end int) kdtree.Interface { return p[start:end] }

// plane sorts centroids along one dimension for median partitioning
type plane struct {
	kdtree.Dim
	centroids
}

func (p plane) Less(i, j int) bool {
	return p.centroids[i].Compare(p.centroids[j], p.Dim) < 0
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{Dim: p.Dim, centroids: p.centroids[start:end]}
}
func (p plane) Swap(i, j int) {
	p.centroids[i], p.centroids[j] = p.centroids[j], p.centroids[i]
}

func newCentroidTree(m *mesh.Mesh) *kdtree.Tree {
	pts := make(centroids, m.NCells())
	for i, x := range m.Centroids() {
		pts[i] = centroid{Vec: x, i: i}
	}
	return kdtree.New(pts, false)
}

// inverseDistanceWeights returns normalised 1/d² weights of the k source centroids nearest x.
// A coincident centroid takes the full weight.
func inverseDistanceWeights(tree *kdtree.Tree, x r3.Vec, k int) (idx []int, w []float64) {
	keep := kdtree.NewNKeeper(k)
	tree.NearestSet(keep, centroid{Vec: x, i: -1})
	var sum float64
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		c := cd.Comparable.(centroid)
		if cd.Dist < utils.NODETOL*utils.NODETOL {
			return []int{c.i}, []float64{1}
		}
		idx = append(idx, c.i)
		w = append(w, 1/cd.Dist)
		sum += 1 / cd.Dist
	}
	for n := range w {
		w[n] /= sum
	}
	return
}
