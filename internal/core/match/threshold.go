package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/agenthands/recordlink/internal/core/model"
)

// ComputeThreshold picks the score cutoff that maximises the expected
// F-beta over all blocked candidate pairs, with beta = recallWeight. Each
// score is read as the probability the pair is a true match, so expected
// true positives above a cutoff is the sum of the scores above it.
func ComputeThreshold(m *Model, records []model.Record, recallWeight float64) (float64, error) {
	return computeThreshold(m, records, recallWeight, DefaultMaxBlockSize)
}

func computeThreshold(m *Model, records []model.Record, recallWeight float64, maxBlock int) (float64, error) {
	if recallWeight <= 0 || math.IsNaN(recallWeight) || math.IsInf(recallWeight, 0) {
		return 0, fmt.Errorf("recall weight must be positive, got %v", recallWeight)
	}
	pairs := candidatePairs(records, m.Fields, maxBlock)
	if len(pairs) == 0 {
		return 0, model.ErrNoCandidatePairs
	}

	return cutoff(scorePairs(m, records, pairs), recallWeight), nil
}

// cutoff returns the threshold maximising expected F-beta over scores. A
// larger recallWeight moves the cutoff down, admitting more pairs.
func cutoff(scores []float64, recallWeight float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	total := 0.0
	for _, s := range sorted {
		total += s
	}

	beta2 := recallWeight * recallWeight
	best, bestF := sorted[0], -1.0
	cum := 0.0
	for k, s := range sorted {
		cum += s
		precision := cum / float64(k+1)
		recall := cum / total
		f := (1 + beta2) * precision * recall / (beta2*precision + recall)
		if f > bestF {
			bestF, best = f, s
		}
	}

	// Step just below the chosen score so that pair clears the strict
	// "score > threshold" test in Match.
	threshold := math.Nextafter(best, 0)
	if threshold <= 0 {
		threshold = math.SmallestNonzeroFloat64
	}
	return threshold
}
