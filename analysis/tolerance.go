package analysis

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Tolerances bound the outcome of a test: "drift" on the relative conservation drift,
// "l2" and "linf" on the target error norms. They are reported against, never enforced.
type Tolerances map[string]float64

func (tol Tolerances) Validate() error {
	for key, v := range tol {
		switch key {
		case "drift", "l2", "linf":
		default:
			return fmt.Errorf("unknown tolerance %q, must be drift, l2 or linf", key)
		}
		if v < 0 {
			return fmt.Errorf("tolerance %q is negative: %v", key, v)
		}
	}
	return nil
}

// Exceeded returns the sorted names of the tolerances that cr or target exceed
func (tol Tolerances) Exceeded(cr ConservationReport, target ErrorReport) (names []string) {
	for key, v := range tol {
		var value float64
		switch key {
		case "drift":
			value = cr.RelativeDrift()
		case "l2":
			value = target.L2Error
		case "linf":
			value = target.LinfError
		default:
			continue
		}
		if value > v {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return
}

// Log warns when any tolerance is exceeded
func (tol Tolerances) Log(log logrus.FieldLogger, label string, cr ConservationReport, target ErrorReport) {
	exceeded := tol.Exceeded(cr, target)
	if len(exceeded) == 0 {
		return
	}
	log.WithFields(logrus.Fields{
		"test":          label,
		"exceeded":      exceeded,
		"relativeDrift": cr.RelativeDrift(),
		"l2":            target.L2Error,
		"linf":          target.LinfError,
	}).Warn("tolerance exceeded")
}
