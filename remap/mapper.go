package remap

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
)

// Method selects the interpolation performed by a Mapper
type Method uint8

const (
	CONSERVATIVE = Method(iota)
	INVERSE_DISTANCE
	CONSERVATIVE_FIRST_ORDER
)

var methodNames = [...]string{
	CONSERVATIVE:             "CONSERVATIVE",
	INVERSE_DISTANCE:         "INVERSE_DISTANCE",
	CONSERVATIVE_FIRST_ORDER: "CONSERVATIVE_FIRST_ORDER",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", m)
}

// Conservative reports whether the method preserves the volume integral
func (m Method) Conservative() bool {
	return m == CONSERVATIVE || m == CONSERVATIVE_FIRST_ORDER
}

func ParseMethod(label string) (Method, error) {
	name := strings.ToUpper(strings.TrimSpace(label))
	for m, mn := range methodNames {
		if mn == name {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("remap.ParseMethod: unknown interpolation method %q, must be one of %s",
		label, strings.Join(methodNames[:], ", "))
}

// Mapper transfers cell values from its source mesh onto its target mesh.
// Interpolate has exclusive use of target for the duration of the call and
// keeps no reference to either field afterwards. gradient may be nil.
type Mapper interface {
	Source() *mesh.Mesh
	Target() *mesh.Mesh
	Interpolate(target, source *fields.Scalar, gradient *fields.Vector, method Method) error
}

// Options configure the construction of a Mapper
type Options struct {
	Threads     int
	ForceRecalc bool   // ignore any cached addressing
	WriteAddr   bool   // persist the addressing for later runs
	CacheDir    string // where addressing is cached, empty disables caching
	Log         logrus.FieldLogger
}

// Factory builds a Mapper for a mesh pair. Building is the expensive step.
type Factory func(src, tgt *mesh.Mesh, opts Options) (Mapper, error)

// CheckFields verifies that source and target live on the meshes of mp
func CheckFields(mp Mapper, target, source *fields.Scalar) error {
	if source.Mesh != mp.Source() {
		return fmt.Errorf("source field %q is not on the mapper source mesh %q", source.Name, mp.Source().Name)
	}
	if target.Mesh != mp.Target() {
		return fmt.Errorf("target field %q is not on the mapper target mesh %q", target.Name, mp.Target().Name)
	}
	return nil
}
