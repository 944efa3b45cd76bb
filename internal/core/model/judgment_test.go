package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreference_JSONUsesZeroBasedIndex(t *testing.T) {
	first, err := PreferenceFromIndex(0)
	require.NoError(t, err)

	data, err := json.Marshal(Judgment{A: "A1", B: "A2", Preferred: first})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_a":"A1","id_b":"A2","preferred":0}`, string(data))

	data, err = json.Marshal(Judgment{A: "A1", B: "A2", Preferred: PreferSecond, Confidence: 0.8})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_a":"A1","id_b":"A2","preferred":1,"confidence":0.8}`, string(data))

	data, err = json.Marshal(Judgment{A: "A1", B: "A2"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_a":"A1","id_b":"A2","preferred":null}`, string(data))

	data, err = json.Marshal(Judgment{A: "A1", B: "A2", Preferred: Preference(-1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id_a":"A1","id_b":"A2","preferred":null}`, string(data))
}

func TestPreference_JSONRoundTrip(t *testing.T) {
	for _, p := range []Preference{NoPreference, PreferFirst, PreferSecond} {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		var got Preference
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, p, got)
	}

	var j Judgment
	require.NoError(t, json.Unmarshal([]byte(`{"id_a":"X","id_b":"Y","preferred":1}`), &j))
	assert.Equal(t, PreferSecond, j.Preferred)

	err := json.Unmarshal([]byte(`{"id_a":"X","id_b":"Y","preferred":2}`), &j)
	assert.True(t, errors.Is(err, ErrInvalidJudgment))
	err = json.Unmarshal([]byte(`{"id_a":"X","id_b":"Y","preferred":"first"}`), &j)
	assert.True(t, errors.Is(err, ErrInvalidJudgment))
}
