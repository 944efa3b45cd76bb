package match

import (
	"context"
	"errors"

	"github.com/agenthands/recordlink/internal/core/model"
)

// Label is a reviewer's answer about one pair.
type Label int

const (
	LabelUnsure Label = iota
	LabelMatch
	LabelDistinct
)

func (l Label) String() string {
	switch l {
	case LabelMatch:
		return "match"
	case LabelDistinct:
		return "distinct"
	default:
		return "unsure"
	}
}

// ErrStopLabeling ends an active-learning session early without failing it.
var ErrStopLabeling = errors.New("labeling stopped")

// Labeler answers whether two records are the same entity.
type Labeler interface {
	Label(ctx context.Context, a, b model.Record) (Label, error)
}

// LabelerFunc adapts a function to Labeler.
type LabelerFunc func(ctx context.Context, a, b model.Record) (Label, error)

func (f LabelerFunc) Label(ctx context.Context, a, b model.Record) (Label, error) {
	return f(ctx, a, b)
}
