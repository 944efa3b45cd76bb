package match

import "github.com/agenthands/recordlink/internal/core/model"

// ClustersToJudgments turns each cluster into judgments against its most
// confident member, which is preferred as canonical. Ties go to the member
// listed first.
func ClustersToJudgments(clusters []model.Cluster) []model.Judgment {
	var out []model.Judgment
	for _, c := range clusters {
		if len(c.Members) < 2 {
			continue
		}
		best := 0
		for i, m := range c.Members {
			if m.Confidence > c.Members[best].Confidence {
				best = i
			}
		}
		canonical := c.Members[best]
		for i, m := range c.Members {
			if i == best {
				continue
			}
			conf := m.Confidence
			if conf <= 0 || conf > 1 {
				conf = 0
			}
			out = append(out, model.Judgment{
				A:          canonical.RecordID,
				B:          m.RecordID,
				Preferred:  model.PreferFirst,
				Confidence: conf,
			})
		}
	}
	return out
}
