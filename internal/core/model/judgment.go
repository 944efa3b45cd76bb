package model

import (
	"encoding/json"
	"fmt"
)

// Preference names which side of a judgment survives as canonical.
type Preference int

const (
	NoPreference Preference = iota
	PreferFirst
	PreferSecond
)

// PreferenceFromIndex converts a zero-based preferred-record index into a Preference.
func PreferenceFromIndex(i int) (Preference, error) {
	switch i {
	case 0:
		return PreferFirst, nil
	case 1:
		return PreferSecond, nil
	default:
		return NoPreference, fmt.Errorf("%w: preferred index %d out of range", ErrInvalidJudgment, i)
	}
}

// Index returns the zero-based index of the preferred side, or -1.
func (p Preference) Index() int {
	switch p {
	case PreferFirst:
		return 0
	case PreferSecond:
		return 1
	default:
		return -1
	}
}

func (p Preference) Valid() bool {
	return p == NoPreference || p == PreferFirst || p == PreferSecond
}

// MarshalJSON writes the zero-based index of the preferred side, or null.
func (p Preference) MarshalJSON() ([]byte, error) {
	if i := p.Index(); i >= 0 {
		return json.Marshal(i)
	}
	return []byte("null"), nil
}

// UnmarshalJSON reads a zero-based index or null.
func (p *Preference) UnmarshalJSON(data []byte) error {
	var idx *int
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("%w: preferred must be 0, 1 or null: %v", ErrInvalidJudgment, err)
	}
	if idx == nil {
		*p = NoPreference
		return nil
	}
	pref, err := PreferenceFromIndex(*idx)
	if err != nil {
		return err
	}
	*p = pref
	return nil
}

// Judgment states that A and B denote the same entity.
type Judgment struct {
	A          string     `json:"id_a"`
	B          string     `json:"id_b"`
	Preferred  Preference `json:"preferred"`
	Confidence float64    `json:"confidence,omitempty"` // 0 = unset
}

// Validate reports why a judgment cannot be applied.
func (j Judgment) Validate() error {
	if j.A == "" || j.B == "" {
		return fmt.Errorf("%w: empty record id", ErrInvalidJudgment)
	}
	if j.A == j.B {
		return fmt.Errorf("%w: self-pair %q", ErrInvalidJudgment, j.A)
	}
	if !j.Preferred.Valid() {
		return fmt.Errorf("%w: preference %d out of range", ErrInvalidJudgment, j.Preferred)
	}
	// NaN fails both comparisons below, so check it explicitly.
	if j.Confidence != j.Confidence || j.Confidence < 0 || j.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidJudgment, j.Confidence)
	}
	return nil
}

// EquivalenceClass is one consolidated entity. Members excludes the canonical id.
type EquivalenceClass struct {
	Canonical string   `json:"canonical_id"`
	Members   []string `json:"members"`
}

// MappingEntry redirects a duplicate id to its canonical id.
type MappingEntry struct {
	Duplicate string `json:"duplicate_id"`
	Canonical string `json:"canonical_id"`
}
