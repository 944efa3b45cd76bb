package model

// PairVerdict is the structured answer a reviewer gives about two records.
type PairVerdict struct {
	Duplicate  bool    `json:"duplicate"`
	Confidence float64 `json:"confidence"`
	Preferred  *int    `json:"preferred"` // zero-based, nil when no side is better
	Reason     string  `json:"reason,omitempty"`
}

// CandidatePair is two records queued for review.
type CandidatePair struct {
	A Record `json:"a"`
	B Record `json:"b"`
}
