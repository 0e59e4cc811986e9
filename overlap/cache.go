package overlap

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/utils"
)

// addressing is the persisted form of the mapper weights
type addressing struct {
	Source, Target   string
	NSource, NTarget int
	W, IDW           utils.RawCSR
	M                [3]utils.RawCSR
}

func addressingFile(dir string, src, tgt *mesh.Mesh) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, fmt.Sprintf("%s_to_%s.addr", src.Name, tgt.Name))
}

func (mp *Mapper) addressing() (a *addressing) {
	a = &addressing{
		Source:  mp.src.Name,
		Target:  mp.tgt.Name,
		NSource: mp.src.NCells(),
		NTarget: mp.tgt.NCells(),
		W:       mp.W.Raw(),
		IDW:     mp.IDW.Raw(),
	}
	for d := range a.M {
		a.M[d] = mp.M[d].Raw()
	}
	return
}

func (mp *Mapper) setAddressing(a *addressing) (err error) {
	if mp.W, err = a.W.ToCSR(); err != nil {
		return
	}
	if mp.IDW, err = a.IDW.ToCSR(); err != nil {
		return
	}
	for d := range a.M {
		if mp.M[d], err = a.M[d].ToCSR(); err != nil {
			return
		}
	}
	mp.covered = mp.W.RowSums()
	return
}

func readAddressing(fileName string, src, tgt *mesh.Mesh) (a *addressing, err error) {
	var f *os.File
	if f, err = os.Open(fileName); err != nil {
		return
	}
	defer f.Close()
	a = &addressing{}
	if err = gob.NewDecoder(f).Decode(a); err != nil {
		return nil, fmt.Errorf("overlap: reading %s: %w", fileName, err)
	}
	if a.NSource != src.NCells() || a.NTarget != tgt.NCells() {
		return nil, fmt.Errorf("overlap: %s maps %d to %d cells, meshes have %d and %d",
			fileName, a.NSource, a.NTarget, src.NCells(), tgt.NCells())
	}
	for _, raw := range []utils.RawCSR{a.W, a.IDW, a.M[0], a.M[1], a.M[2]} {
		if raw.NRows != a.NTarget || raw.NCols != a.NSource {
			return nil, fmt.Errorf("overlap: %s matrix %q is %d x %d, expected %d x %d",
				fileName, raw.Name, raw.NRows, raw.NCols, a.NTarget, a.NSource)
		}
	}
	return
}

// writeAddressing goes through a temporary file so a failed write never leaves a partial cache
func writeAddressing(fileName string, a *addressing) (err error) {
	dir := filepath.Dir(fileName)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	var tmp *os.File
	if tmp, err = os.CreateTemp(dir, "."+filepath.Base(fileName)+".*"); err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = gob.NewEncoder(tmp).Encode(a); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("overlap: writing %s: %w", fileName, err)
	}
	if err = tmp.Close(); err != nil {
		return
	}
	return os.Rename(tmp.Name(), fileName)
}
