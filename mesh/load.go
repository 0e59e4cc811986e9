package mesh

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
)

const (
	ConstantDir  = "constant"
	SU2MeshFile  = "mesh.su2"
	MeshDictFile = "meshDict.yaml"
)

// MeshDict is the YAML description of a case mesh when no SU2 file is present
//
//	Name: coarse
//	Box:
//	  N: [16, 16, 1]
//	  Min: [0, 0, -0.5]
//	  Max: [1, 1, 0.5]
//	  Triangulate: true
//	ZMin: -0.5 # used to extrude an SU2 mesh
//	ZMax: 0.5
type MeshDict struct {
	Name string   `json:"Name"`
	Box  *BoxSpec `json:"Box,omitempty"`
	ZMin float64  `json:"ZMin"`
	ZMax float64  `json:"ZMax"`
}

func (md *MeshDict) Parse(data []byte) error {
	return yaml.Unmarshal(data, md)
}

// Load reads the mesh of a case directory: constant/mesh.su2 when present,
// otherwise the box described by constant/meshDict.yaml
func Load(caseDir string) (m *Mesh, err error) {
	var (
		md      = MeshDict{Name: filepath.Base(caseDir), ZMin: -0.5, ZMax: 0.5}
		dictFN  = filepath.Join(caseDir, ConstantDir, MeshDictFile)
		su2FN   = filepath.Join(caseDir, ConstantDir, SU2MeshFile)
		haveSU2 bool
	)
	if data, readErr := os.ReadFile(dictFN); readErr == nil {
		if err = md.Parse(data); err != nil {
			return nil, fmt.Errorf("reading %s: %w", dictFN, err)
		}
	} else if !os.IsNotExist(readErr) {
		return nil, readErr
	}
	if _, statErr := os.Stat(su2FN); statErr == nil {
		haveSU2 = true
	}
	switch {
	case haveSU2:
		if m, err = ReadSU2(su2FN, md.ZMin, md.ZMax); err != nil {
			return nil, err
		}
		m.Name = md.Name
	case md.Box != nil:
		if m, err = NewBoxMesh(md.Name, *md.Box); err != nil {
			return nil, fmt.Errorf("reading %s: %w", dictFN, err)
		}
	default:
		return nil, fmt.Errorf("case %s has no mesh: need %s or a Box entry in %s", caseDir, su2FN, dictFN)
	}
	if err = m.Validate(); err != nil {
		return nil, err
	}
	return
}

// WriteMeshDict writes a box mesh description into caseDir/constant
func WriteMeshDict(caseDir string, md MeshDict) (err error) {
	var data []byte
	if data, err = yaml.Marshal(md); err != nil {
		return
	}
	dir := filepath.Join(caseDir, ConstantDir)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	return os.WriteFile(filepath.Join(dir, MeshDictFile), data, 0o644)
}
