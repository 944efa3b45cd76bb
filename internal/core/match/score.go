package match

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/agenthands/recordlink/internal/core/model"
)

// scorePairs scores pairs in parallel. Each worker writes only its own
// slots, so the result is identical to a sequential run.
func scorePairs(m *Model, records []model.Record, pairs []Pair) []float64 {
	scores := make([]float64, len(pairs))
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(pairs) + workers - 1) / workers
	if chunk < 256 {
		chunk = 256
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(pairs); start += chunk {
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				p := pairs[i]
				scores[i] = m.Score(records[p.I], records[p.J])
			}
			return nil
		})
	}
	_ = g.Wait()
	return scores
}
