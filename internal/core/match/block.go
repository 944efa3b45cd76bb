package match

import (
	"sort"

	"github.com/agenthands/recordlink/internal/core/model"
)

// DefaultMaxBlockSize bounds how many records one blocking key may group.
// Larger blocks come from values too common to be informative.
const DefaultMaxBlockSize = 500

// Pair indexes two records, I < J.
type Pair struct {
	I, J int
}

func blockKeys(r model.Record, fields []model.FieldSpec) []string {
	var keys []string
	for _, f := range fields {
		raw, ok := r.Value(f.Field)
		if !ok {
			continue
		}
		v := normalize(raw)
		if v == "" {
			continue
		}
		prefix := f.Field + "\x00"
		keys = append(keys, prefix+"="+v)
		switch f.Type {
		case model.ComparatorString, model.ComparatorExact:
			runes := []rune(v)
			if len(runes) > 4 {
				keys = append(keys, prefix+"^"+string(runes[:4]))
			}
		case model.ComparatorText:
			for _, tok := range tokens(v) {
				if len([]rune(tok)) >= 3 {
					keys = append(keys, prefix+"t"+tok)
				}
			}
		}
	}
	return keys
}

// candidatePairs returns every pair of records sharing a blocking key,
// sorted by (I, J).
func candidatePairs(records []model.Record, fields []model.FieldSpec, maxBlock int) []Pair {
	if maxBlock <= 0 {
		maxBlock = DefaultMaxBlockSize
	}
	blocks := make(map[string][]int)
	for i, r := range records {
		seen := make(map[string]bool)
		for _, k := range blockKeys(r, fields) {
			if seen[k] {
				continue
			}
			seen[k] = true
			blocks[k] = append(blocks[k], i)
		}
	}

	set := make(map[Pair]struct{})
	for _, idx := range blocks {
		if len(idx) < 2 || len(idx) > maxBlock {
			continue
		}
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				set[Pair{I: idx[a], J: idx[b]}] = struct{}{}
			}
		}
	}

	pairs := make([]Pair, 0, len(set))
	for p := range set {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})
	return pairs
}
