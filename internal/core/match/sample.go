package match

import (
	"math/rand"

	"github.com/agenthands/recordlink/internal/core/model"
)

// DefaultSampleSize caps the labeling pool so active learning stays fast.
const DefaultSampleSize = 15000

// samplePairs draws up to size distinct pairs: half from blocked candidates,
// where duplicates concentrate, and the rest uniformly at random.
func samplePairs(records []model.Record, fields []model.FieldSpec, size, maxBlock int, rng *rand.Rand) []Pair {
	n := len(records)
	if n < 2 || size <= 0 {
		return nil
	}
	total := n * (n - 1) / 2
	if size > total {
		size = total
	}

	seen := make(map[Pair]bool, size)
	sample := make([]Pair, 0, size)
	add := func(p Pair) {
		if !seen[p] {
			seen[p] = true
			sample = append(sample, p)
		}
	}

	blocked := candidatePairs(records, fields, maxBlock)
	rng.Shuffle(len(blocked), func(i, j int) { blocked[i], blocked[j] = blocked[j], blocked[i] })
	half := size / 2
	if half == 0 {
		half = 1
	}
	for _, p := range blocked {
		if len(sample) >= half {
			break
		}
		add(p)
	}

	// Bounded attempts keep dense samples from spinning.
	for attempts := 0; len(sample) < size && attempts < size*20; attempts++ {
		i, j := rng.Intn(n), rng.Intn(n)
		if i == j {
			continue
		}
		if i > j {
			i, j = j, i
		}
		add(Pair{I: i, J: j})
	}
	return sample
}
