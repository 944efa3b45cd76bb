// Package core wires the consolidation engine, the match pipeline, LLM
// review and mapping sinks into one service used by the server and CLI.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/agenthands/recordlink/internal/config"
	"github.com/agenthands/recordlink/internal/core/consolidate"
	"github.com/agenthands/recordlink/internal/core/dedupe"
	"github.com/agenthands/recordlink/internal/core/match"
	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/core/project"
	"github.com/agenthands/recordlink/internal/metrics"
	"github.com/agenthands/recordlink/internal/sink"
	"github.com/google/uuid"
)

// ErrNoReviewer is returned when LLM review is requested but not configured.
var ErrNoReviewer = errors.New("no LLM reviewer configured")

type Service struct {
	Config   *config.Config
	Metrics  *metrics.Collector
	Reviewer *dedupe.Reviewer
	logger   *slog.Logger
}

// NewService builds a service. reviewer may be nil when no LLM is used; when
// set, its review timings are recorded on the service's collector.
func NewService(cfg *config.Config, reviewer *dedupe.Reviewer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg == nil {
		cfg = config.Default()
	}
	collector := metrics.NewCollector(nil)
	if reviewer != nil {
		reviewer.Metrics = collector
	}
	return &Service{
		Config:   cfg,
		Metrics:  collector,
		Reviewer: reviewer,
		logger:   logger,
	}
}

// ConsolidationResult is the outcome of one consolidation run.
type ConsolidationResult struct {
	RunID   string                   `json:"run_id"`
	Mapping []model.MappingEntry     `json:"mapping"`
	Classes []model.EquivalenceClass `json:"classes"`
	consolidate.Report
}

// Consolidate applies judgments in order and returns the final mapping.
// Invalid judgments are reported and skipped.
func (s *Service) Consolidate(ctx context.Context, judgments []model.Judgment) (*ConsolidationResult, error) {
	runID := uuid.New().String()
	log := s.logger.With("run_id", runID)

	stop := s.Metrics.Time(metrics.OpConsolidation)
	engine := consolidate.NewEngine(log)
	report := engine.AddAll(judgments)
	res := &ConsolidationResult{
		RunID:   runID,
		Mapping: engine.Finalize(),
		Classes: engine.Classes(),
		Report:  report,
	}
	elapsed := stop()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Info("consolidated judgments",
		"judgments", len(judgments),
		"ids", engine.Len(),
		"applied", report.Applied,
		"rejected", len(report.Rejected),
		"tie_breaks", len(report.TieBreaks),
		"classes", len(res.Classes),
		"elapsed", elapsed)
	return res, nil
}

// MatchResult is the outcome of clustering one entity's records.
type MatchResult struct {
	RunID     string                  `json:"run_id"`
	Threshold float64                 `json:"threshold"`
	Clusters  []model.Cluster         `json:"clusters"`
	Records   []model.AugmentedRecord `json:"records"`
	Mapping   []model.MappingEntry    `json:"mapping"`
}

// MatchRecords trains or loads the entity's model, clusters records and
// consolidates the clusters into a mapping. The configured reviewer labels
// pairs during training when match.max_queries is positive.
func (s *Service) MatchRecords(ctx context.Context, entity string, records []model.Record) (*MatchResult, error) {
	ec, err := s.Config.Entity(entity)
	if err != nil {
		return nil, err
	}
	runID := uuid.New().String()
	log := s.logger.With("run_id", runID, "entity", entity)

	mc := s.Config.Match
	opts := match.Options{
		SettingsPath:     ec.SettingsPath,
		TrainingPath:     ec.TrainingPath,
		SampleSize:       mc.SampleSize,
		Seed:             mc.Seed,
		MaxQueries:       mc.MaxQueries,
		MaxBlockSize:     mc.MaxBlockSize,
		MaxComponentSize: mc.MaxComponentSize,
		Metrics:          s.Metrics,
		Logger:           log,
	}
	if s.Reviewer != nil && mc.MaxQueries > 0 {
		opts.Labeler = s.Reviewer
	}

	p, err := match.Initialize(ctx, records, ec.Fields, opts)
	if err != nil {
		return nil, err
	}
	out, err := p.Run(ctx, mc.RecallWeight)
	if err != nil {
		return nil, err
	}

	augmented, err := project.ApplyClusters(records, out.Clusters)
	if err != nil {
		return nil, err
	}
	consolidated, err := s.Consolidate(ctx, match.ClustersToJudgments(out.Clusters))
	if err != nil {
		return nil, err
	}

	return &MatchResult{
		RunID:     runID,
		Threshold: out.Threshold,
		Clusters:  out.Clusters,
		Records:   augmented,
		Mapping:   consolidated.Mapping,
	}, nil
}

// Review runs the LLM reviewer over candidate pairs.
func (s *Service) Review(ctx context.Context, pairs []model.CandidatePair) (*dedupe.ReviewReport, error) {
	if s.Reviewer == nil {
		return nil, ErrNoReviewer
	}
	return s.Reviewer.ReviewPairs(ctx, pairs)
}

// Publish writes entries to snk using the entity's id width.
func (s *Service) Publish(ctx context.Context, entity string, snk sink.MappingSink, entries []model.MappingEntry) error {
	ec, err := s.Config.Entity(entity)
	if err != nil {
		return err
	}
	stop := s.Metrics.Time(metrics.OpPublish)
	err = sink.Publish(ctx, snk, entries, ec.IDWidth)
	elapsed := stop()
	if err != nil {
		return fmt.Errorf("publish %s mapping: %w", entity, err)
	}
	s.logger.Info("published mapping", "entity", entity, "entries", len(entries), "sink", fmt.Sprintf("%T", snk), "elapsed", elapsed)
	return nil
}
