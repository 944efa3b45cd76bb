package match

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/agenthands/recordlink/internal/core/model"
)

const settingsFormat = "recordlink-settings/v1"

const (
	fitIterations   = 2000
	fitLearningRate = 0.5
	fitL2           = 0.001
)

// Model is a logistic-regression scorer over per-field similarities.
// A static model was loaded from settings and is never retrained.
type Model struct {
	Fields  []model.FieldSpec
	Weights []float64
	Bias    float64
	static  bool
}

type settings struct {
	Format  string            `json:"format"`
	Fields  []model.FieldSpec `json:"fields"`
	Weights []float64         `json:"weights"`
	Bias    float64           `json:"bias"`
}

// NewModel builds an untrained model. Initial weights treat every field
// equally so a pair that is half similar scores 0.5.
func NewModel(fields []model.FieldSpec) (*Model, error) {
	if err := model.ValidateFields(fields); err != nil {
		return nil, err
	}
	m := &Model{Fields: append([]model.FieldSpec(nil), fields...)}
	m.Weights = make([]float64, m.featureCount())
	for i := range m.Fields {
		m.Weights[i] = 4
	}
	m.Bias = -2 * float64(len(m.Fields))
	return m, nil
}

// LoadModel reads a settings blob and returns a static model.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	var s settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.Format != settingsFormat {
		return nil, fmt.Errorf("settings %s: unsupported format %q", path, s.Format)
	}
	if err := model.ValidateFields(s.Fields); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	m := &Model{Fields: s.Fields, Weights: s.Weights, Bias: s.Bias, static: true}
	if len(m.Weights) != m.featureCount() {
		return nil, fmt.Errorf("settings %s: %d weights for %d features", path, len(m.Weights), m.featureCount())
	}
	return m, nil
}

func (m *Model) Static() bool {
	return m.static
}

func (m *Model) featureCount() int {
	n := len(m.Fields)
	for _, f := range m.Fields {
		if f.HasMissing {
			n++
		}
	}
	return n
}

// Features returns one similarity per field followed by one missing-value
// indicator per field configured with HasMissing.
func (m *Model) Features(a, b model.Record) []float64 {
	x := make([]float64, m.featureCount())
	extra := len(m.Fields)
	for i, f := range m.Fields {
		va, okA := a.Value(f.Field)
		vb, okB := b.Value(f.Field)
		na, nb := normalize(va), normalize(vb)
		missing := !okA || !okB || na == "" || nb == ""
		if !missing {
			x[i] = compare(f.Type, na, nb)
		}
		if f.HasMissing {
			if missing {
				x[extra] = 1
			}
			extra++
		}
	}
	return x
}

// Score is the estimated probability that a and b are the same entity.
func (m *Model) Score(a, b model.Record) float64 {
	return m.scoreFeatures(m.Features(a, b))
}

func (m *Model) scoreFeatures(x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		z += w * x[i]
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func (m *Model) clone() *Model {
	return &Model{
		Fields:  append([]model.FieldSpec(nil), m.Fields...),
		Weights: append([]float64(nil), m.Weights...),
		Bias:    m.Bias,
		static:  m.static,
	}
}

// Fit replaces the weights with an L2-regularised logistic regression over
// the labeled examples. Classes are weighted equally regardless of size.
func (m *Model) Fit(ts *TrainingSet) error {
	if m.static {
		return model.ErrStaticModel
	}
	if len(ts.Match) == 0 || len(ts.Distinct) == 0 {
		return fmt.Errorf("%w: have %d match, %d distinct", model.ErrInsufficientTraining, len(ts.Match), len(ts.Distinct))
	}

	type example struct {
		x      []float64
		y      float64
		weight float64
	}
	var data []example
	wMatch := 0.5 / float64(len(ts.Match))
	wDistinct := 0.5 / float64(len(ts.Distinct))
	for _, p := range ts.Match {
		data = append(data, example{x: m.Features(p.A, p.B), y: 1, weight: wMatch})
	}
	for _, p := range ts.Distinct {
		data = append(data, example{x: m.Features(p.A, p.B), y: 0, weight: wDistinct})
	}

	n := m.featureCount()
	w := make([]float64, n)
	b := 0.0
	grad := make([]float64, n)
	for iter := 0; iter < fitIterations; iter++ {
		for i := range grad {
			grad[i] = fitL2 * w[i]
		}
		gb := 0.0
		for _, ex := range data {
			z := b
			for i := range w {
				z += w[i] * ex.x[i]
			}
			diff := (sigmoid(z) - ex.y) * ex.weight
			for i := range w {
				grad[i] += diff * ex.x[i]
			}
			gb += diff
		}
		for i := range w {
			w[i] -= fitLearningRate * grad[i]
		}
		b -= fitLearningRate * gb
	}

	m.Weights = w
	m.Bias = b
	return nil
}

func (m *Model) encode() ([]byte, error) {
	return json.MarshalIndent(settings{
		Format:  settingsFormat,
		Fields:  m.Fields,
		Weights: m.Weights,
		Bias:    m.Bias,
	}, "", "  ")
}
