package model

import "errors"

var (
	ErrInvalidJudgment      = errors.New("invalid judgment")
	ErrInvalidFieldSpec     = errors.New("invalid field spec")
	ErrStaticModel          = errors.New("static model cannot be trained")
	ErrInsufficientTraining = errors.New("training needs at least one match and one distinct example")
	ErrNoCandidatePairs     = errors.New("no candidate pairs to score")
	ErrPersistence          = errors.New("persistence failure")
	ErrIDWidth              = errors.New("id does not match fixed width")
	ErrUnknownRecord        = errors.New("unknown record")
	ErrOverlappingClusters  = errors.New("record appears in more than one cluster")
)
