package source

import (
	"strings"
	"testing"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var workColumns = JudgmentColumns{IDA: "work_code_1", IDB: "work_code_2", Flag: "duplicate", Preferred: "keep"}

func TestReadJudgments(t *testing.T) {
	sheet := `work_code_1,title_1,work_code_2,title_2,duplicate,keep
wk0000000001,Emile,wk0000000002,Emile ou l'education,Y,1
wk0000000003,Candide,wk0000000004,Candide,Y,2
wk0000000011,Mahomet,wk0000000012,Mahomet,yes,1
wk0000000005,Zadig,wk0000000006,Zadig,N,1
wk0000000007,Julie,wk0000000008,Julie,Y,
wk0000000009,Pucelle,wk0000000010,Pucelle,Y,3
`
	got, err := ReadJudgments(strings.NewReader(sheet), workColumns)
	require.NoError(t, err)

	assert.Equal(t, []model.Judgment{
		{A: "wk0000000001", B: "wk0000000002", Preferred: model.PreferFirst},
		{A: "wk0000000003", B: "wk0000000004", Preferred: model.PreferSecond},
		{A: "wk0000000007", B: "wk0000000008", Preferred: model.NoPreference},
	}, got.Judgments)
	assert.Equal(t, 2, got.Unconfirmed)
	require.Len(t, got.Malformed, 1)
	assert.Equal(t, 7, got.Malformed[0].Line)
}

func TestReadJudgments_WithoutPreferredColumn(t *testing.T) {
	sheet := "agent_code_1,agent_code_2,duplicate\nag000001,ag000002,Y\n"
	got, err := ReadJudgments(strings.NewReader(sheet), JudgmentColumns{IDA: "agent_code_1", IDB: "agent_code_2", Flag: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, []model.Judgment{{A: "ag000001", B: "ag000002"}}, got.Judgments)
}

func TestReadJudgments_MissingColumn(t *testing.T) {
	_, err := ReadJudgments(strings.NewReader("a,b\n1,2\n"), workColumns)
	assert.Error(t, err)
}

func TestReadRecords(t *testing.T) {
	table := "agent_code,name,place\nag000001,Jean-Jacques Rousseau,Geneve\nag000002, Voltaire ,\n"
	records, err := ReadRecords(strings.NewReader(table), "agent_code")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "ag000001", records[0].ID)
	v, ok := records[1].Value("name")
	assert.True(t, ok)
	assert.Equal(t, "Voltaire", v)
	_, ok = records[1].Value("place")
	assert.False(t, ok)
	_, ok = records[0].Value("agent_code")
	assert.False(t, ok)
}

func TestReadRecords_ByteOrderMarkOnFieldColumn(t *testing.T) {
	table := "\ufeffname,agent_code\nVoltaire,ag000002\n"
	records, err := ReadRecords(strings.NewReader(table), "agent_code")
	require.NoError(t, err)
	require.Len(t, records, 1)

	v, ok := records[0].Value("name")
	assert.True(t, ok)
	assert.Equal(t, "Voltaire", v)
	_, ok = records[0].Value("\ufeffname")
	assert.False(t, ok)
}

func TestReadJudgments_ByteOrderMark(t *testing.T) {
	sheet := "\ufeffagent_code_1,agent_code_2,duplicate\nag000001,ag000002,Y\n"
	got, err := ReadJudgments(strings.NewReader(sheet), JudgmentColumns{IDA: "agent_code_1", IDB: "agent_code_2", Flag: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, []model.Judgment{{A: "ag000001", B: "ag000002"}}, got.Judgments)
}

func TestReadRecords_EmptyID(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("id,name\n,Nobody\n"), "id")
	assert.Error(t, err)
}

func TestReadPairs(t *testing.T) {
	records, err := ReadRecords(strings.NewReader("id,name\na,Rey\nb,Rey\n"), "id")
	require.NoError(t, err)
	byID := map[string]model.Record{"a": records[0], "b": records[1]}

	pairs, err := ReadPairs(strings.NewReader("left,right\na,b\n"), "left", "right", byID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "b", pairs[0].B.ID)

	_, err = ReadPairs(strings.NewReader("left,right\na,z\n"), "left", "right", byID)
	assert.ErrorIs(t, err, model.ErrUnknownRecord)
}

func TestWriteJudgments_RoundTrips(t *testing.T) {
	judgments := []model.Judgment{
		{A: "wk0000000001", B: "wk0000000002", Preferred: model.PreferSecond, Confidence: 0.8},
		{A: "wk0000000003", B: "wk0000000004"},
	}
	var buf strings.Builder
	require.NoError(t, WriteJudgments(&buf, workColumns, judgments))
	assert.Equal(t, "work_code_1,work_code_2,duplicate,keep,confidence\n"+
		"wk0000000001,wk0000000002,Y,2,0.8\n"+
		"wk0000000003,wk0000000004,Y,,\n", buf.String())

	got, err := ReadJudgments(strings.NewReader(buf.String()), workColumns)
	require.NoError(t, err)
	require.Len(t, got.Judgments, 2)
	assert.Equal(t, judgments[0], got.Judgments[0])
	assert.Equal(t, model.NoPreference, got.Judgments[1].Preferred)
}
