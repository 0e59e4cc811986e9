package analytic

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/utils"
)

type Kind uint8

const (
	CONSTANT = Kind(iota)
	LINEAR
	SINUSOID_2D
	SINUSOID_3D
	COSINE_HILL_2D
)

var kindNames = [...]string{
	CONSTANT:       "CONSTANT",
	LINEAR:         "LINEAR",
	SINUSOID_2D:    "SINUSOID_2D",
	SINUSOID_3D:    "SINUSOID_3D",
	COSINE_HILL_2D: "COSINE_HILL_2D",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind converts a user supplied name, case insensitive, e.g. "cosine_hill_2d"
func ParseKind(label string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(label))
	for k, kn := range kindNames {
		if kn == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("analytic.ParseKind: unknown test field kind %q, must be one of %s",
		label, strings.Join(kindNames[:], ", "))
}

// Model is an analytic test function with an exact gradient.
// The set of implementations is closed, see NewModel.
type Model interface {
	Kind() Kind
	Value(x r3.Vec) float64
	Gradient(x r3.Vec) r3.Vec
	sealed()
}

const DefaultConstant = 2.0

var (
	DefaultLinearCoefficients = r3.Vec{X: 2, Y: 3, Z: 1}
	DefaultHillWidth          = 0.5 * math.Sqrt2
)

// NewModel returns the catalogue model for k with its standard parameters
func NewModel(k Kind) Model {
	switch k {
	case CONSTANT:
		return Constant{C: DefaultConstant}
	case LINEAR:
		return Linear{A: DefaultLinearCoefficients}
	case SINUSOID_2D:
		return Sinusoid2D{}
	case SINUSOID_3D:
		return Sinusoid3D{}
	case COSINE_HILL_2D:
		return CosineHill2D{L: DefaultHillWidth}
	}
	panic(fmt.Errorf("analytic.NewModel: invalid test field kind %s", k))
}

// Constant is f = C
type Constant struct {
	C float64
}

func (Constant) Kind() Kind { return CONSTANT }
func (m Constant) Value(r3.Vec) float64 { return m.C }
func (Constant) Gradient(r3.Vec) r3.Vec { return r3.Vec{} }
func (Constant) sealed() {}

// Linear is f = A·x
type Linear struct {
	A r3.Vec
}

func (Linear) Kind() Kind { return LINEAR }
func (m Linear) Value(x r3.Vec) float64 { return r3.Dot(m.A, x) }
func (m Linear) Gradient(r3.Vec) r3.Vec { return m.A }
func (Linear) sealed() {}

// Sinusoid2D is f = 1 + sin(2πx)sin(2πy)
type Sinusoid2D struct{}

func (Sinusoid2D) Kind() Kind { return SINUSOID_2D }

func (Sinusoid2D) Value(x r3.Vec) float64 {
	return 1 + math.Sin(2*math.Pi*x.X)*math.Sin(2*math.Pi*x.Y)
}

func (Sinusoid2D) Gradient(x r3.Vec) r3.Vec {
	var (
		sx, cx = math.Sincos(2 * math.Pi * x.X)
		sy, cy = math.Sincos(2 * math.Pi * x.Y)
	)
	return r3.Scale(2*math.Pi, r3.Vec{X: cx * sy, Y: sx * cy})
}

func (Sinusoid2D) sealed() {}

// Sinusoid3D is f = 1 + sin(2πx)sin(2πy)sin(2πz)
type Sinusoid3D struct{}

func (Sinusoid3D) Kind() Kind { return SINUSOID_3D }

func (Sinusoid3D) Value(x r3.Vec) float64 {
	return 1 + math.Sin(2*math.Pi*x.X)*math.Sin(2*math.Pi*x.Y)*math.Sin(2*math.Pi*x.Z)
}

func (Sinusoid3D) Gradient(x r3.Vec) r3.Vec {
	var (
		sx, cx = math.Sincos(2 * math.Pi * x.X)
		sy, cy = math.Sincos(2 * math.Pi * x.Y)
		sz, cz = math.Sincos(2 * math.Pi * x.Z)
	)
	return r3.Scale(2*math.Pi, r3.Vec{X: cx * sy * sz, Y: sx * cy * sz, Z: sx * sy * cz})
}

func (Sinusoid3D) sealed() {}

// CosineHill2D is f = 2 + cos(πr/L), r = |x - Center|
type CosineHill2D struct {
	Center r3.Vec
	L      float64
}

func (CosineHill2D) Kind() Kind { return COSINE_HILL_2D }

func (m CosineHill2D) Value(x r3.Vec) float64 {
	r := r3.Norm(r3.Sub(x, m.Center))
	return 2 + math.Cos(math.Pi*r/m.L)
}

// Gradient is zero at the hill center, the limit of the smooth maximum
func (m CosineHill2D) Gradient(x r3.Vec) r3.Vec {
	dx := r3.Sub(x, m.Center)
	r := r3.Norm(dx)
	if r < utils.NODETOL {
		return r3.Vec{}
	}
	return r3.Scale(-math.Pi/(r*m.L)*math.Sin(math.Pi*r/m.L), dx)
}

func (CosineHill2D) sealed() {}
