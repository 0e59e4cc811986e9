package overlap

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gomapfields/fields"
	"github.com/notargets/gomapfields/mesh"
	"github.com/notargets/gomapfields/remap"
	"github.com/notargets/gomapfields/utils"
)

// Mapper is a volume overlap remapping operator. Rows of every weight matrix
// are target cells, columns are source cells.
type Mapper struct {
	src, tgt *mesh.Mesh
	log      logrus.FieldLogger

	W       utils.CSR    // overlap volumes
	M       [3]utils.CSR // first moments of the overlaps about the source centroid
	IDW     utils.CSR    // normalised inverse distance weights
	covered []float64    // overlapped volume of each target cell
}

// Factory adapts New to remap.Factory
func Factory(src, tgt *mesh.Mesh, opts remap.Options) (remap.Mapper, error) {
	return New(src, tgt, opts)
}

// New computes, or loads from the addressing cache, the weights for mapping src onto tgt
func New(src, tgt *mesh.Mesh, opts remap.Options) (mp *Mapper, err error) {
	if err = src.Validate(); err != nil {
		return
	}
	if err = tgt.Validate(); err != nil {
		return
	}
	mp = &Mapper{src: src, tgt: tgt, log: opts.Log}
	if mp.log == nil {
		mp.log = logrus.StandardLogger()
	}
	log := mp.log.WithFields(logrus.Fields{"source": src.Name, "target": tgt.Name})
	cacheFile := addressingFile(opts.CacheDir, src, tgt)
	if cacheFile != "" && !opts.ForceRecalc {
		var a *addressing
		if a, err = readAddressing(cacheFile, src, tgt); err == nil {
			if err = mp.setAddressing(a); err == nil {
				log.WithField("file", cacheFile).Info("loaded mapping addressing")
				return
			}
		}
		log.WithError(err).Debug("recomputing mapping addressing")
		err = nil
	}
	start := time.Now()
	if err = mp.calcAddressing(opts.Threads); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"threads":  opts.Threads,
		"overlaps": mp.W.NNZ(),
		"elapsed":  time.Since(start),
		"memory":   utils.GetMemUsage(),
	}).Info("calculated mapping addressing")
	if opts.WriteAddr && cacheFile != "" {
		if err = writeAddressing(cacheFile, mp.addressing()); err != nil {
			return nil, fmt.Errorf("writing mapping addressing: %w", err)
		}
		log.WithField("file", cacheFile).Info("wrote mapping addressing")
	}
	return
}

func (mp *Mapper) Source() *mesh.Mesh { return mp.src }
func (mp *Mapper) Target() *mesh.Mesh { return mp.tgt }

func idwNeighbors(m *mesh.Mesh) int {
	if m.NGeometricD == 2 {
		return 4
	}
	return 8
}

func (mp *Mapper) calcAddressing(threads int) (err error) {
	var (
		nTgt, nSrc = mp.tgt.NCells(), mp.src.NCells()
		index      = newFootprintIndex(mp.src)
		kd         = newCentroidTree(mp.src)
		k          = min(idwNeighbors(mp.src), nSrc)
		pm         = utils.NewPartitionMap(threads, nTgt)
		pieces     = make([][]piece, pm.ParallelDegree)
		idwIdx     = make([][]int, nTgt)
		idwW       = make([][]float64, nTgt)
		g          errgroup.Group
	)
	for np := 0; np < pm.ParallelDegree; np++ {
		np := np
		g.Go(func() error {
			kMin, kMax := pm.GetBucketRange(np)
			pieces[np] = make([]piece, 0, pm.GetBucketDimension(np))
			for j := kMin; j < kMax; j++ {
				tc := mp.tgt.Cells[j]
				for _, p := range overlapsOf(j, tc, index, mp.src) {
					if math.IsNaN(p.volume) {
						return fmt.Errorf("overlap of target cell %d with source cell %d is not a number", j, p.src)
					}
					pieces[np] = append(pieces[np], p)
				}
				idwIdx[j], idwW[j] = inverseDistanceWeights(kd, tc.Centroid, k)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return
	}
	W := utils.NewDOK(nTgt, nSrc, "W")
	var M [3]utils.DOK
	for d := range M {
		M[d] = utils.NewDOK(nTgt, nSrc, fmt.Sprintf("M%d", d))
	}
	IDW := utils.NewDOK(nTgt, nSrc, "IDW")
	srcCentroids := mp.src.Centroids()
	for _, part := range pieces {
		for _, p := range part {
			W.Add(p.tgt, p.src, p.volume)
			moment := r3.Scale(p.volume, r3.Sub(p.centroid, srcCentroids[p.src]))
			M[0].Add(p.tgt, p.src, moment.X)
			M[1].Add(p.tgt, p.src, moment.Y)
			M[2].Add(p.tgt, p.src, moment.Z)
		}
	}
	for j := range idwIdx {
		for n, i := range idwIdx[j] {
			IDW.Set(j, i, idwW[j][n])
		}
	}
	mp.W = W.ToCSR()
	for d := range M {
		mp.M[d] = M[d].ToCSR()
	}
	mp.IDW = IDW.ToCSR()
	mp.covered = mp.W.RowSums()
	return
}

// Coverage is the fraction of each target cell volume overlapped by source cells
func (mp *Mapper) Coverage() (frac []float64) {
	frac = make([]float64, len(mp.covered))
	for j, v := range mp.tgt.Volumes() {
		frac[j] = mp.covered[j] / v
	}
	return
}

// Interpolate sets the interior of target from source. Boundary values of target are not touched.
func (mp *Mapper) Interpolate(target, source *fields.Scalar, gradient *fields.Vector, method remap.Method) error {
	if err := remap.CheckFields(mp, target, source); err != nil {
		return err
	}
	if gradient != nil && gradient.Mesh != mp.src {
		return fmt.Errorf("gradient field %q is not on the mapper source mesh %q", gradient.Name, mp.src.Name)
	}
	if utils.IsNan(source.Internal) {
		return fmt.Errorf("source field %q has NaN values", source.Name)
	}
	nTgt := mp.tgt.NCells()
	switch method {
	case remap.INVERSE_DISTANCE:
		mp.IDW.MulVecTo(target.Internal, source.Internal)
		return nil
	case remap.CONSERVATIVE, remap.CONSERVATIVE_FIRST_ORDER:
	default:
		return fmt.Errorf("overlap: unsupported interpolation method %s", method)
	}
	var (
		sum = make([]float64, nTgt)
		tmp = make([]float64, nTgt)
	)
	mp.W.MulVecTo(sum, source.Internal)
	if method == remap.CONSERVATIVE && gradient != nil {
		g := make([]float64, mp.src.NCells())
		for d := 0; d < 3; d++ {
			for i, v := range gradient.Internal {
				g[i] = [3]float64{v.X, v.Y, v.Z}[d]
			}
			mp.M[d].MulVecTo(tmp, g)
			for j := range sum {
				sum[j] += tmp[j]
			}
		}
	}
	var uncovered []float64
	for j := range sum {
		if mp.covered[j] > 0 {
			target.Internal[j] = sum[j] / mp.covered[j]
			continue
		}
		// No overlap at all, fall back to the nearest source cells
		if uncovered == nil {
			uncovered = make([]float64, nTgt)
			mp.IDW.MulVecTo(uncovered, source.Internal)
		}
		target.Internal[j] = uncovered[j]
	}
	return nil
}
