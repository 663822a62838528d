package sdba

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cfortin/climstats/pkg/series"
)

// EScoreOptions tunes the energy-score computation.
type EScoreOptions struct {
	// N, when positive, subsamples both sides to about N observations
	// taken evenly along the time axis, bounding the quadratic cost.
	N int
	// Scale z-scores both sides with the target's per-variable mean and
	// standard deviation (sample deviation, NaN excluded) before
	// computing distances.
	Scale bool
}

// EScore computes the energy-distance dissimilarity between two stacked
// samples sharing the same variable axis:
//
//	e = 1/2 * n1*n2/(n1+n2) * (2*M12 - M11 - M22)
//
// where Mij is the mean pairwise Euclidean distance between the points of
// groups i and j. Identical samples score 0.
func EScore(tgt, sim *series.Stacked, opts EScoreOptions) (float64, error) {
	if tgt.NVars() != sim.NVars() {
		return math.NaN(), fmt.Errorf("sdba: escore needs the same variables on both sides, got %d vs %d", tgt.NVars(), sim.NVars())
	}

	tp := subsampleColumns(tgt, opts.N)
	sp := subsampleColumns(sim, opts.N)

	if opts.Scale {
		for v := 0; v < tgt.NVars(); v++ {
			clean := make([]float64, 0, len(tp))
			for _, col := range tp {
				if !math.IsNaN(col[v]) {
					clean = append(clean, col[v])
				}
			}
			m := stat.Mean(clean, nil)
			sd := stat.StdDev(clean, nil)
			for _, col := range tp {
				col[v] = (col[v] - m) / sd
			}
			for _, col := range sp {
				col[v] = (col[v] - m) / sd
			}
		}
	}

	m12 := meanPairwise(tp, sp)
	m11 := meanPairwise(tp, tp)
	m22 := meanPairwise(sp, sp)

	n1 := float64(len(tp))
	n2 := float64(len(sp))
	return 0.5 * n1 * n2 / (n1 + n2) * (2*m12 - m11 - m22), nil
}

// subsampleColumns extracts the observation points (columns) of a stacked
// sample, keeping about n of them evenly spaced when n > 0.
func subsampleColumns(st *series.Stacked, n int) [][]float64 {
	size := st.NSamples()
	step := 1
	if n > 0 && size > n {
		step = int(math.Ceil(float64(size) / float64(n)))
	}
	var cols [][]float64
	for j := 0; j < size; j += step {
		cols = append(cols, st.Column(j))
	}
	return cols
}

func meanPairwise(a, b [][]float64) float64 {
	sum := 0.0
	for _, p := range a {
		for _, q := range b {
			sum += floats.Distance(p, q, 2)
		}
	}
	return sum / float64(len(a)*len(b))
}
