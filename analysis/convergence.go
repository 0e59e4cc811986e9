package analysis

import (
	"fmt"
	"math"
	"sort"
)

// Order is the observed convergence rate between two successive refinements
type Order struct {
	CoarseCells, FineCells int
	L2, Linf               float64
}

// ObservedOrders sorts the reports from coarse to fine and returns
// log(e1/e2)/log(dx1/dx2) for each successive pair
func ObservedOrders(reports []ErrorReport) (orders []Order, err error) {
	if len(reports) < 2 {
		return nil, fmt.Errorf("need at least two refinements for an order estimate, have %d", len(reports))
	}
	sorted := make([]ErrorReport, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CellCount < sorted[j].CellCount })
	rate := func(e1, e2, dx1, dx2 float64) float64 {
		if e1 <= 0 || e2 <= 0 {
			return math.NaN()
		}
		return math.Log(e1/e2) / math.Log(dx1/dx2)
	}
	for i := 1; i < len(sorted); i++ {
		c, f := sorted[i-1], sorted[i]
		if c.CellCount == f.CellCount {
			return nil, fmt.Errorf("two reports share the cell count %d", c.CellCount)
		}
		orders = append(orders, Order{
			CoarseCells: c.CellCount,
			FineCells:   f.CellCount,
			L2:          rate(c.L2Error, f.L2Error, c.EffectiveSpacing, f.EffectiveSpacing),
			Linf:        rate(c.LinfError, f.LinfError, c.EffectiveSpacing, f.EffectiveSpacing),
		})
	}
	return
}
