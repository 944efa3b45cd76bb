package match

import (
	"errors"
	"math"
	"testing"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedAgentModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(agentFields)
	require.NoError(t, err)
	require.NoError(t, m.Fit(agentTraining()))
	return m
}

func TestComputeThreshold_InUnitInterval(t *testing.T) {
	m := trainedAgentModel(t)

	for _, w := range []float64{0.5, 1, 2} {
		th, err := ComputeThreshold(m, agentRecords(), w)
		require.NoError(t, err)
		assert.Greater(t, th, 0.0)
		assert.Less(t, th, 1.0)
	}
}

func TestComputeThreshold_Deterministic(t *testing.T) {
	m := trainedAgentModel(t)

	first, err := ComputeThreshold(m, agentRecords(), 1)
	require.NoError(t, err)
	second, err := ComputeThreshold(m, agentRecords(), 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeThreshold_Errors(t *testing.T) {
	m := trainedAgentModel(t)

	_, err := ComputeThreshold(m, nil, 1)
	assert.True(t, errors.Is(err, model.ErrNoCandidatePairs))

	_, err = ComputeThreshold(m, agentRecords(), 0)
	assert.Error(t, err)
}

func TestCutoff_RecallWeightDirection(t *testing.T) {
	scores := []float64{0.3, 0.95, 0.1, 0.6, 0.9, 0.5}

	precise := cutoff(scores, 0.1)
	balanced := cutoff(scores, 1)
	recallHeavy := cutoff(scores, 10)

	assert.Equal(t, math.Nextafter(0.95, 0), precise)
	assert.Equal(t, math.Nextafter(0.5, 0), balanced)
	assert.Equal(t, math.Nextafter(0.1, 0), recallHeavy)
	assert.Equal(t, []float64{0.3, 0.95, 0.1, 0.6, 0.9, 0.5}, scores, "input must not be reordered")
}

func TestComputeThreshold_GradedNamesFollowRecallWeight(t *testing.T) {
	m := &Model{
		Fields:  []model.FieldSpec{{Field: "name", Type: model.ComparatorString}},
		Weights: []float64{10},
		Bias:    -5,
	}
	records := []model.Record{
		model.NewRecord("r1", map[string]string{"name": "abcdefgh"}),
		model.NewRecord("r2", map[string]string{"name": "abcdefgx"}),
		model.NewRecord("r3", map[string]string{"name": "abcdexyz"}),
	}

	var prev float64
	for i, w := range []float64{0.1, 1, 10} {
		th, err := ComputeThreshold(m, records, w)
		require.NoError(t, err)
		if i > 0 {
			assert.LessOrEqual(t, th, prev, "recall weight %v", w)
		}
		prev = th
	}

	low, err := ComputeThreshold(m, records, 0.1)
	require.NoError(t, err)
	high, err := ComputeThreshold(m, records, 10)
	require.NoError(t, err)
	assert.Greater(t, low, high)
	assert.InDelta(t, sigmoid(10*0.875-5), low, 1e-9)
	assert.InDelta(t, sigmoid(10*0.625-5), high, 1e-9)
}

func TestComputeThreshold_FixtureMonotoneInRecallWeight(t *testing.T) {
	m := trainedAgentModel(t)

	var prev float64
	for i, w := range []float64{0.1, 0.5, 1, 2, 10} {
		th, err := ComputeThreshold(m, agentRecords(), w)
		require.NoError(t, err)
		if i > 0 {
			assert.LessOrEqual(t, th, prev, "recall weight %v", w)
		}
		prev = th
	}
}
