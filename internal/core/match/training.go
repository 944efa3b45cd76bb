package match

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/agenthands/recordlink/internal/core/model"
)

// TrainingSet holds labeled example pairs. It is persisted as indented JSON
// so reviewers can read and edit it between runs.
type TrainingSet struct {
	Match    []model.CandidatePair `json:"match"`
	Distinct []model.CandidatePair `json:"distinct"`
}

// ReadTraining loads labeled examples. A missing file yields an empty set.
func ReadTraining(path string) (*TrainingSet, error) {
	ts := &TrainingSet{}
	if path == "" {
		return ts, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read training %s: %w", path, err)
	}
	if err := json.Unmarshal(data, ts); err != nil {
		return nil, fmt.Errorf("parse training %s: %w", path, err)
	}
	return ts, nil
}

func pairKey(a, b model.Record) [2]string {
	if a.ID > b.ID {
		a, b = b, a
	}
	return [2]string{a.ID, b.ID}
}

// Contains reports whether the pair is already labeled either way.
func (ts *TrainingSet) Contains(a, b model.Record) bool {
	k := pairKey(a, b)
	for _, p := range ts.Match {
		if pairKey(p.A, p.B) == k {
			return true
		}
	}
	for _, p := range ts.Distinct {
		if pairKey(p.A, p.B) == k {
			return true
		}
	}
	return false
}

// Add records a labeled pair. Unsure labels and already-labeled pairs are ignored.
func (ts *TrainingSet) Add(a, b model.Record, label Label) bool {
	if label == LabelUnsure || ts.Contains(a, b) {
		return false
	}
	pair := model.CandidatePair{A: a, B: b}
	if label == LabelMatch {
		ts.Match = append(ts.Match, pair)
	} else {
		ts.Distinct = append(ts.Distinct, pair)
	}
	return true
}

func (ts *TrainingSet) Len() int {
	return len(ts.Match) + len(ts.Distinct)
}

func (ts *TrainingSet) ready() bool {
	return len(ts.Match) > 0 && len(ts.Distinct) > 0
}

func (ts *TrainingSet) clone() *TrainingSet {
	return &TrainingSet{
		Match:    append([]model.CandidatePair(nil), ts.Match...),
		Distinct: append([]model.CandidatePair(nil), ts.Distinct...),
	}
}

func (ts *TrainingSet) encode() ([]byte, error) {
	return json.MarshalIndent(ts, "", "  ")
}
