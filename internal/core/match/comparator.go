package match

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/agenthands/recordlink/internal/core/model"
)

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// compare returns a similarity in [0,1] for two normalized, non-empty values.
func compare(t model.ComparatorType, a, b string) float64 {
	switch t {
	case model.ComparatorExact:
		if a == b {
			return 1
		}
		return 0
	case model.ComparatorText:
		return jaccard(tokens(a), tokens(b))
	case model.ComparatorNumeric:
		return numericSimilarity(a, b)
	default:
		return stringSimilarity(a, b)
	}
}

func stringSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func numericSimilarity(a, b string) float64 {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return stringSimilarity(a, b)
	}
	if x == y {
		return 1
	}
	scale := math.Max(math.Abs(x), math.Abs(y))
	sim := 1 - math.Abs(x-y)/scale
	if sim < 0 {
		return 0
	}
	return sim
}
