package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownEntity is returned for an entity with no [entities.<name>] section.
var ErrUnknownEntity = errors.New("unknown entity")

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

// ReviewConfig drives LLM pair review.
type ReviewConfig struct {
	Prompt string `toml:"prompt"`
	// MinConfidence is the verdict confidence below which a pair counts as unsure.
	MinConfidence float64 `toml:"min_confidence"`
	Concurrency   int     `toml:"concurrency"`
}

type MatchConfig struct {
	SampleSize       int     `toml:"sample_size"`
	Seed             int64   `toml:"seed"`
	RecallWeight     float64 `toml:"recall_weight"`
	MaxQueries       int     `toml:"max_queries"`
	MaxBlockSize     int     `toml:"max_block_size"`
	MaxComponentSize int     `toml:"max_component_size"`
}

// JudgmentColumns names the columns of a judgment sheet export.
type JudgmentColumns struct {
	IDA       string `toml:"id_a"`
	IDB       string `toml:"id_b"`
	Flag      string `toml:"flag"`
	Preferred string `toml:"preferred"`
}

// EntityConfig describes one entity type: agents, editions or works.
type EntityConfig struct {
	IDWidth      int               `toml:"id_width"`
	IDColumn     string            `toml:"id_column"`
	Table        string            `toml:"table"`
	SettingsPath string            `toml:"settings_path"`
	TrainingPath string            `toml:"training_path"`
	Judgments    JudgmentColumns   `toml:"judgments"`
	Fields       []model.FieldSpec `toml:"fields"`
}

type Config struct {
	Log      LogConfig               `toml:"log"`
	LLM      LLMConfig               `toml:"llm"`
	Memgraph MemgraphConfig          `toml:"memgraph"`
	SQLite   SQLiteConfig            `toml:"sqlite"`
	Review   ReviewConfig            `toml:"review"`
	Match    MatchConfig             `toml:"match"`
	Entities map[string]EntityConfig `toml:"entities"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if cfg.Entities == nil {
		cfg.Entities = make(map[string]EntityConfig)
	}
	for name, e := range Default().Entities {
		if _, ok := cfg.Entities[name]; !ok {
			cfg.Entities[name] = e
		}
	}
	cfg.fillEntityDefaults()

	return cfg, nil
}

// Default returns the built-in configuration. Agent codes are eight
// characters, edition and work codes twelve.
func Default() *Config {
	cfg := &Config{
		Log: LogConfig{Level: "info"},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.1",
			BaseURL:  "http://localhost:11434",
		},
		Memgraph: MemgraphConfig{URI: "bolt://localhost:7687"},
		SQLite:   SQLiteConfig{Path: "recordlink.db"},
		Review: ReviewConfig{
			Prompt:        DefaultReviewPrompt,
			MinConfidence: 0.6,
			Concurrency:   4,
		},
		Match: MatchConfig{
			SampleSize:   15000,
			RecallWeight: 1,
		},
		Entities: map[string]EntityConfig{
			"agent":   {IDWidth: 8},
			"edition": {IDWidth: 12},
			"work":    {IDWidth: 12},
		},
	}
	cfg.fillEntityDefaults()
	return cfg
}

func (c *Config) fillEntityDefaults() {
	for name, e := range c.Entities {
		if e.IDColumn == "" {
			e.IDColumn = "id"
		}
		if e.Table == "" {
			e.Table = "final_" + name + "_mapping"
		}
		if e.SettingsPath == "" {
			e.SettingsPath = name + "_settings.json"
		}
		if e.TrainingPath == "" {
			e.TrainingPath = name + "_training.json"
		}
		j := &e.Judgments
		if j.IDA == "" {
			j.IDA = "id_a"
		}
		if j.IDB == "" {
			j.IDB = "id_b"
		}
		if j.Flag == "" {
			j.Flag = "duplicate"
		}
		c.Entities[name] = e
	}
}

// Entity returns the named entity section.
func (c *Config) Entity(name string) (EntityConfig, error) {
	e, ok := c.Entities[name]
	if !ok {
		names := make([]string, 0, len(c.Entities))
		for n := range c.Entities {
			names = append(names, n)
		}
		sort.Strings(names)
		return EntityConfig{}, fmt.Errorf("%w %q (configured: %v)", ErrUnknownEntity, name, names)
	}
	return e, nil
}

// ApplyEnv overrides settings from LLM_*, MEMGRAPH_* and RECORDLINK_* variables.
func (c *Config) ApplyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	setString(&c.SQLite.Path, "RECORDLINK_SQLITE_PATH")
	setString(&c.Log.Level, "RECORDLINK_LOG_LEVEL")
	setString(&c.Log.File, "RECORDLINK_LOG_FILE")

	if v := os.Getenv("RECORDLINK_RECALL_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			c.Match.RecallWeight = w
		}
	}
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Match.RecallWeight <= 0 {
		errs = append(errs, fmt.Errorf("match.recall_weight must be positive, got %v", c.Match.RecallWeight))
	}
	if c.Review.MinConfidence < 0 || c.Review.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("review.min_confidence must be in [0,1], got %v", c.Review.MinConfidence))
	}
	if n := strings.Count(c.Review.Prompt, "%s"); c.Review.Prompt != "" && n != 2 {
		errs = append(errs, fmt.Errorf("review.prompt needs two %%s placeholders, found %d", n))
	}

	names := make([]string, 0, len(c.Entities))
	for n := range c.Entities {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		e := c.Entities[name]
		if e.IDWidth <= 0 {
			errs = append(errs, fmt.Errorf("entities.%s.id_width must be positive", name))
		}
		if len(e.Fields) > 0 {
			if err := model.ValidateFields(e.Fields); err != nil {
				errs = append(errs, fmt.Errorf("entities.%s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
