package remap

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gomapfields/analysis"
	"github.com/notargets/gomapfields/fieldio"
	"github.com/notargets/gomapfields/fields"
)

// Descriptor names a field on the target side
type Descriptor struct {
	Name string
	Time string
}

// Driver remaps fields onto the target mesh of a Mapper and persists them in Store
type Driver struct {
	Store fieldio.Store
	Log   logrus.FieldLogger
}

func NewDriver(store fieldio.Store, log logrus.FieldLogger) *Driver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Driver{Store: store, Log: log}
}

// targetScalar loads the field named by desc when it is already stored, otherwise
// allocates a fresh one carrying the source boundary condition type
func (d *Driver) targetScalar(mp Mapper, desc Descriptor, source *fields.Scalar) (target *fields.Scalar, err error) {
	if d.Store.HeaderOK(desc.Name, desc.Time, fieldio.ScalarClass) {
		if target, err = d.Store.ReadScalar(desc.Name, desc.Time, mp.Target()); err != nil {
			return nil, fmt.Errorf("remap: loading target %s/%s: %w", desc.Time, desc.Name, err)
		}
		return
	}
	target = fields.NewScalar(desc.Name, mp.Target(), source.BC)
	return
}

// RemapOne interpolates source onto the target mesh of mp into the field named by desc.
// An existing stored target is loaded and updated, otherwise a new field is created.
// The conservation report is logged and returned, drift never fails the call.
func (d *Driver) RemapOne(mp Mapper, desc Descriptor, source *fields.Scalar, gradient *fields.Vector,
	method Method) (target *fields.Scalar, cr analysis.ConservationReport, err error) {
	if target, err = d.targetScalar(mp, desc, source); err != nil {
		return
	}
	log := d.Log.WithFields(logrus.Fields{
		"field":  desc.Name,
		"time":   desc.Time,
		"method": method,
		"state":  target.State,
	})
	sourceIntegral := analysis.Integral(mp.Source(), source)
	log.WithField("sourceIntegral", sourceIntegral).Debug("interpolating")
	if err = mp.Interpolate(target, source, gradient, method); err != nil {
		return nil, cr, fmt.Errorf("remap: interpolating %s: %w", desc.Name, err)
	}
	cr = analysis.NewConservationReport(sourceIntegral, analysis.Integral(mp.Target(), target))
	cr.Log(log, desc.Name)
	if err = d.Store.WriteScalar(desc.Time, target); err != nil {
		return nil, cr, fmt.Errorf("remap: writing %s/%s: %w", desc.Time, desc.Name, err)
	}
	return
}

// RemapVector remaps each component of source independently. No gradient is used.
func (d *Driver) RemapVector(mp Mapper, desc Descriptor, source *fields.Vector,
	method Method) (target *fields.Vector, crs [3]analysis.ConservationReport, err error) {
	if d.Store.HeaderOK(desc.Name, desc.Time, fieldio.VectorClass) {
		if target, err = d.Store.ReadVector(desc.Name, desc.Time, mp.Target()); err != nil {
			return nil, crs, fmt.Errorf("remap: loading target %s/%s: %w", desc.Time, desc.Name, err)
		}
	} else {
		target = fields.NewVector(desc.Name, mp.Target(), source.BC)
	}
	for dim := 0; dim < 3; dim++ {
		var (
			src = source.Component(dim)
			tgt = target.Component(dim)
		)
		sourceIntegral := analysis.Integral(mp.Source(), src)
		if err = mp.Interpolate(tgt, src, nil, method); err != nil {
			return nil, crs, fmt.Errorf("remap: interpolating %s: %w", src.Name, err)
		}
		target.SetComponent(dim, tgt)
		crs[dim] = analysis.NewConservationReport(sourceIntegral, analysis.Integral(mp.Target(), tgt))
		crs[dim].Log(d.Log.WithFields(logrus.Fields{"time": desc.Time, "method": method}), src.Name)
	}
	if err = d.Store.WriteVector(desc.Time, target); err != nil {
		return nil, crs, fmt.Errorf("remap: writing %s/%s: %w", desc.Time, desc.Name, err)
	}
	return
}

// MapFields remaps every scalar and vector field stored at time in source onto
// the target mesh of mp, writing the results at the same time in d.Store.
// The first failure stops the mapping.
func (d *Driver) MapFields(mp Mapper, source fieldio.Store, time string, method Method) (mapped []string, err error) {
	var headers []fieldio.Header
	if headers, err = source.List(time); err != nil {
		return nil, fmt.Errorf("remap: listing fields at time %s: %w", time, err)
	}
	d.Log.WithFields(logrus.Fields{
		"time":   time,
		"fields": len(headers),
		"method": method,
	}).Info("mapping fields")
	// Scalars first, then vectors
	for _, class := range []fieldio.Class{fieldio.ScalarClass, fieldio.VectorClass} {
		for _, h := range headers {
			if h.Class != class {
				continue
			}
			desc := Descriptor{Name: h.Name, Time: time}
			d.Log.WithField("field", h.Name).Info("interpolating")
			switch class {
			case fieldio.ScalarClass:
				var f *fields.Scalar
				if f, err = source.ReadScalar(h.Name, time, mp.Source()); err != nil {
					return mapped, fmt.Errorf("remap: reading source %s/%s: %w", time, h.Name, err)
				}
				if _, _, err = d.RemapOne(mp, desc, f, nil, method); err != nil {
					return
				}
			case fieldio.VectorClass:
				var f *fields.Vector
				if f, err = source.ReadVector(h.Name, time, mp.Source()); err != nil {
					return mapped, fmt.Errorf("remap: reading source %s/%s: %w", time, h.Name, err)
				}
				if _, _, err = d.RemapVector(mp, desc, f, method); err != nil {
					return
				}
			}
			mapped = append(mapped, h.Name)
		}
	}
	return
}
