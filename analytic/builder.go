package analytic

import (
	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/types"
)

const (
	FieldName     = "alpha"
	GradFieldName = "grad(alpha)"
)

// Build allocates the test field and its gradient companion on m. With populate
// the interior is set from the model at cell centroids and the scalar boundary
// from the model at face centroids. Gradient boundaries stay zero.
func Build(m *mesh.Mesh, model Model, populate bool) (alpha *fields.Scalar, gradAlpha *fields.Vector) {
	alpha = fields.NewScalar(FieldName, m, types.BC_FixedValue)
	gradAlpha = fields.NewVector(GradFieldName, m, types.BC_ZeroGradient)
	if !populate {
		return
	}
	for i, x := range m.Centroids() {
		alpha.Internal[i] = model.Value(x)
		gradAlpha.Internal[i] = model.Gradient(x)
	}
	InitBoundary(m, model, alpha)
	return
}

// InitBoundary overwrites every stored boundary value of f with the model
// evaluated at the face centroid
func InitBoundary(m *mesh.Mesh, model Model, f *fields.Scalar) {
	for p, patch := range m.Patches {
		if !patch.Type.StoresValues() {
			continue
		}
		for i, face := range patch.Faces {
			f.Boundary[p][i] = model.Value(face.Centroid)
		}
	}
}
