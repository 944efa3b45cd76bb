package match

import (
	"context"

	"github.com/agenthands/recordlink/internal/core/model"
)

var agentFields = []model.FieldSpec{
	{Field: "name", Type: model.ComparatorString},
	{Field: "place", Type: model.ComparatorExact, HasMissing: true},
}

func agentRecords() []model.Record {
	return []model.Record{
		model.NewRecord("a1", map[string]string{"name": "Jean-Jacques Rousseau", "place": "Geneve"}),
		model.NewRecord("a2", map[string]string{"name": "Jean Jacques Rousseau", "place": "Geneve"}),
		model.NewRecord("b1", map[string]string{"name": "Voltaire", "place": "Paris"}),
		model.NewRecord("b2", map[string]string{"name": "Voltaire", "place": "Paris"}),
		model.NewRecord("c1", map[string]string{"name": "Denis Diderot", "place": "Langres"}),
		model.NewRecord("d1", map[string]string{"name": "Marc-Michel Rey", "place": "Amsterdam"}),
		model.NewRecord("d2", map[string]string{"name": "Marc Michel Rey", "place": "Amsterdam"}),
		model.NewRecord("e1", map[string]string{"name": "Charles-Joseph Panckoucke", "place": "Lille"}),
		model.NewRecord("f1", map[string]string{"name": "Denis Diderot", "place": ""}),
		model.NewRecord("g1", map[string]string{"name": "Pierre Rousseau", "place": "Paris"}),
	}
}

func byID(records []model.Record) map[string]model.Record {
	out := make(map[string]model.Record, len(records))
	for _, r := range records {
		out[r.ID] = r
	}
	return out
}

func agentTraining() *TrainingSet {
	r := byID(agentRecords())
	ts := &TrainingSet{}
	ts.Add(r["a1"], r["a2"], LabelMatch)
	ts.Add(r["d1"], r["d2"], LabelMatch)
	ts.Add(r["c1"], r["f1"], LabelMatch)
	ts.Add(r["a1"], r["b1"], LabelDistinct)
	ts.Add(r["c1"], r["e1"], LabelDistinct)
	ts.Add(r["b1"], r["g1"], LabelDistinct)
	ts.Add(r["d1"], r["e1"], LabelDistinct)
	return ts
}

// oracle labels by the letter prefix of record ids.
var oracle = LabelerFunc(func(_ context.Context, a, b model.Record) (Label, error) {
	if a.ID[0] == b.ID[0] {
		return LabelMatch, nil
	}
	return LabelDistinct, nil
})
