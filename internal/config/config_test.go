package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[llm]
provider = "claude"
model = "claude-3-haiku-20240307"

[match]
recall_weight = 2.0

[entities.agent]
id_width = 8

[[entities.agent.fields]]
field = "name"
type = "String"

[[entities.agent.fields]]
field = "place"
type = "Exact"
has_missing = true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 2.0, cfg.Match.RecallWeight)
	assert.Equal(t, 15000, cfg.Match.SampleSize)
	assert.Equal(t, DefaultReviewPrompt, cfg.Review.Prompt)

	agent, err := cfg.Entity("agent")
	require.NoError(t, err)
	assert.Equal(t, 8, agent.IDWidth)
	assert.Equal(t, "final_agent_mapping", agent.Table)
	assert.Equal(t, "id_a", agent.Judgments.IDA)
	assert.Equal(t, []model.FieldSpec{
		{Field: "name", Type: model.ComparatorString},
		{Field: "place", Type: model.ComparatorExact, HasMissing: true},
	}, agent.Fields)

	work, err := cfg.Entity("work")
	require.NoError(t, err)
	assert.Equal(t, 12, work.IDWidth)

	_, err = cfg.Entity("printer")
	assert.Error(t, err)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[llm\nprovider ="))
	assert.Error(t, err)
}

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := Load("../../config/config.toml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Entities, 3)
	assert.Equal(t, "keep", cfg.Entities["edition"].Judgments.Preferred)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Match.RecallWeight = 0
	cfg.Entities["agent"] = EntityConfig{IDWidth: 0, Fields: []model.FieldSpec{{Field: "name", Type: "Fuzzy"}}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
	assert.Contains(t, err.Error(), "recall_weight")
	assert.Contains(t, err.Error(), "entities.agent.id_width")
	assert.ErrorIs(t, err, model.ErrInvalidFieldSpec)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("MEMGRAPH_URI", "bolt://graph:7687")
	t.Setenv("RECORDLINK_LOG_LEVEL", "debug")
	t.Setenv("RECORDLINK_RECALL_WEIGHT", "1.5")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, "bolt://graph:7687", cfg.Memgraph.URI)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1.5, cfg.Match.RecallWeight)
	assert.Equal(t, "llama3.1", cfg.LLM.Model)
}
