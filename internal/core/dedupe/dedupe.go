// Package dedupe asks an LLM whether two records are the same entity.
package dedupe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/agenthands/recordlink/internal/config"
	"github.com/agenthands/recordlink/internal/core/common"
	"github.com/agenthands/recordlink/internal/core/match"
	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/llm"
	"github.com/agenthands/recordlink/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// Reviewer turns LLM verdicts into labels and judgments.
type Reviewer struct {
	LLM llm.LLMClient
	// Prompt is a format string taking the two records as JSON.
	Prompt        string
	MinConfidence float64
	Concurrency   int
	Metrics       *metrics.Collector
	logger        *slog.Logger
}

func NewReviewer(llmClient llm.LLMClient, cfg config.ReviewConfig, logger *slog.Logger) (*Reviewer, error) {
	prompt := cfg.Prompt
	if prompt == "" {
		prompt = config.DefaultReviewPrompt
	}
	if n := strings.Count(prompt, "%s"); n != 2 {
		return nil, fmt.Errorf("review prompt needs exactly two %%s placeholders, found %d", n)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Reviewer{
		LLM:           llmClient,
		Prompt:        prompt,
		MinConfidence: cfg.MinConfidence,
		Concurrency:   concurrency,
		Metrics:       metrics.NewCollector(nil),
		logger:        logger,
	}, nil
}

// Review asks the LLM about one pair and checks the verdict it returns.
func (r *Reviewer) Review(ctx context.Context, a, b model.Record) (model.PairVerdict, error) {
	defer r.Metrics.Time(metrics.OpReview)()

	prompt := fmt.Sprintf(r.Prompt, serializeRecord(a), serializeRecord(b))
	response, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return model.PairVerdict{}, fmt.Errorf("failed to generate review for %s/%s: %w", a.ID, b.ID, err)
	}

	verdict, err := common.ParseJSON[model.PairVerdict](response)
	if err != nil {
		return model.PairVerdict{}, fmt.Errorf("review %s/%s: %w", a.ID, b.ID, err)
	}
	if verdict.Confidence < 0 || verdict.Confidence > 1 {
		return model.PairVerdict{}, fmt.Errorf("review %s/%s: confidence %v out of range", a.ID, b.ID, verdict.Confidence)
	}
	if verdict.Preferred != nil && *verdict.Preferred != 0 && *verdict.Preferred != 1 {
		return model.PairVerdict{}, fmt.Errorf("review %s/%s: preferred index %d out of range", a.ID, b.ID, *verdict.Preferred)
	}
	return verdict, nil
}

// Label implements match.Labeler. Verdicts under MinConfidence are unsure.
func (r *Reviewer) Label(ctx context.Context, a, b model.Record) (match.Label, error) {
	v, err := r.Review(ctx, a, b)
	if err != nil {
		return match.LabelUnsure, err
	}
	label := labelFor(v, r.MinConfidence)
	r.logger.Debug("llm labeled pair", "a", a.ID, "b", b.ID, "label", label.String(), "confidence", v.Confidence, "reason", v.Reason)
	return label, nil
}

func labelFor(v model.PairVerdict, minConfidence float64) match.Label {
	switch {
	case v.Confidence < minConfidence:
		return match.LabelUnsure
	case v.Duplicate:
		return match.LabelMatch
	default:
		return match.LabelDistinct
	}
}

// PairFailure is a pair the LLM could not review.
type PairFailure struct {
	Index int    `json:"index"`
	A     string `json:"id_a"`
	B     string `json:"id_b"`
	Error string `json:"error"`
}

// ReviewReport summarizes a ReviewPairs run.
type ReviewReport struct {
	Judgments []model.Judgment `json:"judgments"`
	Distinct  int              `json:"distinct"`
	Unsure    int              `json:"unsure"`
	Failed    []PairFailure    `json:"failed,omitempty"`
}

// ReviewPairs reviews pairs concurrently and returns a judgment for every
// confident duplicate, in input order. A pair whose review fails is
// reported and skipped. Cancelling ctx aborts the run.
func (r *Reviewer) ReviewPairs(ctx context.Context, pairs []model.CandidatePair) (*ReviewReport, error) {
	verdicts := make([]model.PairVerdict, len(pairs))
	errs := make([]error, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Concurrency)
	for i := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			verdicts[i], errs[i] = r.Review(gctx, pairs[i].A, pairs[i].B)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &ReviewReport{}
	for i, p := range pairs {
		if errs[i] != nil {
			r.logger.Warn("pair review failed", "a", p.A.ID, "b", p.B.ID, "error", errs[i])
			report.Failed = append(report.Failed, PairFailure{Index: i, A: p.A.ID, B: p.B.ID, Error: errs[i].Error()})
			continue
		}
		v := verdicts[i]
		switch labelFor(v, r.MinConfidence) {
		case match.LabelUnsure:
			report.Unsure++
		case match.LabelDistinct:
			report.Distinct++
		case match.LabelMatch:
			j := model.Judgment{A: p.A.ID, B: p.B.ID, Confidence: v.Confidence}
			if v.Preferred != nil {
				j.Preferred, _ = model.PreferenceFromIndex(*v.Preferred)
			}
			report.Judgments = append(report.Judgments, j)
		}
	}
	r.logger.Info("reviewed candidate pairs",
		"pairs", len(pairs),
		"duplicates", len(report.Judgments),
		"distinct", report.Distinct,
		"unsure", report.Unsure,
		"failed", len(report.Failed))
	return report, nil
}

func serializeRecord(rec model.Record) string {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return rec.ID
	}
	return string(out)
}
