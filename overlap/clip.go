package overlap

import (
	"math"

	"github.com/ctessum/geom"
)

// Points closer than this to a clip edge count as inside
const edgeTol = 1e-13

func cross(o, a, b geom.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// clipConvex intersects two convex counter-clockwise rings (Sutherland-Hodgman).
// Vertices lying on a clip edge are kept, so coincident edges of conforming
// cells produce a zero area result instead of a spurious sliver.
func clipConvex(subject, clip []geom.Point) []geom.Point {
	out := append([]geom.Point(nil), subject...)
	n := len(clip)
	for e := 0; e < n && len(out) > 0; e++ {
		var (
			a, b  = clip[e], clip[(e+1)%n]
			in    = out
			scale = geom.Point{X: b.X - a.X, Y: b.Y - a.Y}
			tol   = edgeTol * (math.Abs(scale.X) + math.Abs(scale.Y))
		)
		out = make([]geom.Point, 0, len(in)+2)
		for i := range in {
			cur, prev := in[i], in[(i+len(in)-1)%len(in)]
			dCur, dPrev := cross(a, b, cur), cross(a, b, prev)
			curIn, prevIn := dCur >= -tol, dPrev >= -tol
			switch {
			case curIn && prevIn:
				out = append(out, cur)
			case curIn && !prevIn:
				out = append(out, intersect(prev, cur, dPrev, dCur), cur)
			case !curIn && prevIn:
				out = append(out, intersect(prev, cur, dPrev, dCur))
			}
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

// intersect returns the point where segment p->q crosses the clip line, given the signed distances of p and q
func intersect(p, q geom.Point, dp, dq float64) geom.Point {
	t := dp / (dp - dq)
	return geom.Point{X: p.X + t*(q.X-p.X), Y: p.Y + t*(q.Y-p.Y)}
}
