package sink

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/driver"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var agentMapping = []model.MappingEntry{
	{Duplicate: "ag000002", Canonical: "ag000001"},
	{Duplicate: "ag000003", Canonical: "ag000001"},
	{Duplicate: "ag000010", Canonical: "ag000011"},
}

type recordingSink struct {
	calls int
	err   error
}

func (s *recordingSink) WriteMapping(ctx context.Context, entries []model.MappingEntry, width int) error {
	s.calls++
	return s.err
}

func TestPublish_ChecksWidthBeforeWriting(t *testing.T) {
	s := &recordingSink{}
	bad := append([]model.MappingEntry{}, agentMapping...)
	bad = append(bad, model.MappingEntry{Duplicate: "ag12", Canonical: "ag000001"})

	err := Publish(context.Background(), s, bad, 8)
	assert.True(t, errors.Is(err, model.ErrIDWidth))
	assert.Equal(t, 0, s.calls)

	require.NoError(t, Publish(context.Background(), s, agentMapping, 8))
	assert.Equal(t, 1, s.calls)

	err = Publish(context.Background(), s, agentMapping, 12)
	assert.True(t, errors.Is(err, model.ErrIDWidth))
}

func TestPublish_WrapsSinkFailure(t *testing.T) {
	s := &recordingSink{err: errors.New("disk full")}
	err := Publish(context.Background(), s, agentMapping, 8)
	assert.True(t, errors.Is(err, model.ErrPersistence))
}

func TestPublish_EmptyMapping(t *testing.T) {
	s := &recordingSink{}
	require.NoError(t, Publish(context.Background(), s, nil, 8))
	assert.Equal(t, 1, s.calls)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_mapping.csv")
	require.NoError(t, Publish(context.Background(), FileSink{Path: path}, agentMapping, 8))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "duplicate_id,canonical_id\nag000002,ag000001\nag000003,ag000001\nag000010,ag000011\n", string(data))
}

func TestSQLiteSink_ReplacesTable(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "mpce.db"))
	require.NoError(t, err)
	defer db.Close()

	s := SQLiteSink{DB: db, Table: DefaultTable("agent")}
	require.NoError(t, Publish(ctx, s, agentMapping, 8))

	got, err := ReadMapping(ctx, db, "final_agent_mapping")
	require.NoError(t, err)
	assert.Equal(t, agentMapping, got)

	second := []model.MappingEntry{{Duplicate: "ag000099", Canonical: "ag000098"}}
	require.NoError(t, Publish(ctx, s, second, 8))
	got, err = ReadMapping(ctx, db, "final_agent_mapping")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestSQLiteSink_CancelledKeepsPrevious(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "mpce.db"))
	require.NoError(t, err)
	defer db.Close()

	s := SQLiteSink{DB: db, Table: "final_agent_mapping"}
	require.NoError(t, s.WriteMapping(context.Background(), agentMapping, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.WriteMapping(ctx, []model.MappingEntry{{Duplicate: "ag000099", Canonical: "ag000098"}}, 8)
	assert.Error(t, err)

	got, err := ReadMapping(context.Background(), db, "final_agent_mapping")
	require.NoError(t, err)
	assert.Equal(t, agentMapping, got)
}

func TestSQLiteSink_RejectsTableName(t *testing.T) {
	s := SQLiteSink{Table: "mapping; DROP TABLE agent"}
	assert.Error(t, s.WriteMapping(context.Background(), agentMapping, 8))
}

type mockRunner struct {
	queries []string
	params  []map[string]interface{}
}

func (r *mockRunner) Run(ctx context.Context, query string, params map[string]interface{}) error {
	r.queries = append(r.queries, query)
	r.params = append(r.params, params)
	return nil
}

type MockDriver struct {
	Runner   *mockRunner
	WriteErr error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) ExecuteWrite(ctx context.Context, fn func(driver.QueryRunner) error) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	return fn(m.Runner)
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func TestGraphSink(t *testing.T) {
	runner := &mockRunner{}
	s := GraphSink{Driver: &MockDriver{Runner: runner}, Entity: "agent", RunID: "run-1"}

	require.NoError(t, Publish(context.Background(), s, agentMapping, 8))
	require.Len(t, runner.queries, 2)
	assert.Equal(t, driver.DeleteMappingQuery, runner.queries[0])
	assert.Equal(t, "agent", runner.params[0]["entity"])

	assert.Equal(t, driver.SaveMappingQuery, runner.queries[1])
	assert.Equal(t, "run-1", runner.params[1]["run_id"])
	rows := runner.params[1]["rows"].([]interface{})
	require.Len(t, rows, 3)
	assert.Equal(t, map[string]interface{}{"duplicate": "ag000002", "canonical": "ag000001"}, rows[0])
}

func TestGraphSink_Batches(t *testing.T) {
	runner := &mockRunner{}
	s := GraphSink{Driver: &MockDriver{Runner: runner}, Entity: "work"}

	entries := make([]model.MappingEntry, graphBatchSize+1)
	for i := range entries {
		entries[i] = model.MappingEntry{Duplicate: "dup", Canonical: "can"}
	}
	require.NoError(t, s.WriteMapping(context.Background(), entries, 3))
	assert.Len(t, runner.queries, 3)
	assert.NotEmpty(t, runner.params[1]["run_id"])
	assert.Equal(t, runner.params[1]["run_id"], runner.params[2]["run_id"])
}

func TestGraphSink_TransactionFailure(t *testing.T) {
	s := GraphSink{Driver: &MockDriver{WriteErr: errors.New("connection refused")}, Entity: "agent"}
	err := Publish(context.Background(), s, agentMapping, 8)
	assert.True(t, errors.Is(err, model.ErrPersistence))
}
