// Package match wraps a trainable similarity model: it samples candidate
// pairs, learns field weights from labeled examples, searches a match
// threshold and clusters records into likely duplicates.
package match

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/agenthands/recordlink/internal/core/common"
	"github.com/agenthands/recordlink/internal/core/model"
	"github.com/agenthands/recordlink/internal/metrics"
)

// State is where a Pipeline is in its lifecycle.
type State int

const (
	StateUntrained State = iota
	StateTrained
	StateStatic
	StateMatched
)

func (s State) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateTrained:
		return "trained"
	case StateStatic:
		return "static"
	case StateMatched:
		return "matched"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrNotTrained = errors.New("model has not been trained")

// DefaultSeed keeps sampling reproducible when the caller does not choose one.
const DefaultSeed = int64(20210801)

type Options struct {
	// SettingsPath holds the trained model. If it exists the pipeline is static.
	SettingsPath string
	// TrainingPath holds the human-readable labeled examples.
	TrainingPath string
	SampleSize   int
	Seed         int64
	// MaxQueries bounds how many pairs the Labeler is asked about per Train.
	MaxQueries       int
	MaxBlockSize     int
	MaxComponentSize int
	Labeler          Labeler
	Metrics          *metrics.Collector
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.MaxBlockSize <= 0 {
		o.MaxBlockSize = DefaultMaxBlockSize
	}
	if o.MaxComponentSize <= 0 {
		o.MaxComponentSize = DefaultMaxComponentSize
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewCollector(nil)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Pipeline drives one similarity model over one record set.
type Pipeline struct {
	opts      Options
	records   []model.Record
	model     *Model
	state     State
	sample    []Pair
	training  *TrainingSet
	threshold float64
	clusters  []model.Cluster
}

// Result is the outcome of Run.
type Result struct {
	Threshold float64
	Clusters  []model.Cluster
	Timings   map[string]time.Duration
}

// Initialize loads a static model from opts.SettingsPath when it exists.
// Otherwise it validates fields, builds a trainable model, draws the
// labeling sample and reads any saved training examples. ctx is checked
// once sampling is done.
func Initialize(ctx context.Context, records []model.Record, fields []model.FieldSpec, opts Options) (*Pipeline, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record with empty id")
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("duplicate record id %q", r.ID)
		}
		seen[r.ID] = true
	}

	p := &Pipeline{opts: opts, records: records}

	if opts.SettingsPath != "" {
		_, err := os.Stat(opts.SettingsPath)
		switch {
		case err == nil:
			m, err := LoadModel(opts.SettingsPath)
			if err != nil {
				return nil, err
			}
			log.Info("loaded pre-trained model", "path", opts.SettingsPath, "fields", len(m.Fields))
			p.model = m
			p.state = StateStatic
			p.training = &TrainingSet{}
			return p, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("stat settings %s: %w", opts.SettingsPath, err)
		}
	}

	m, err := NewModel(fields)
	if err != nil {
		return nil, err
	}
	p.model = m

	stop := opts.Metrics.Time(metrics.OpSampling)
	sample := samplePairs(records, m.Fields, opts.SampleSize, opts.MaxBlockSize, rand.New(rand.NewSource(opts.Seed)))
	elapsed := stop()
	log.Info("sampled candidate pairs", "pairs", len(sample), "cap", opts.SampleSize, "elapsed", elapsed)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("initialize cancelled after sampling: %w", err)
	}

	ts, err := ReadTraining(opts.TrainingPath)
	if err != nil {
		return nil, err
	}
	if ts.Len() > 0 {
		log.Info("read labeled examples", "path", opts.TrainingPath, "match", len(ts.Match), "distinct", len(ts.Distinct))
	}

	p.sample = sample
	p.training = ts
	p.state = StateUntrained
	return p, nil
}

func (p *Pipeline) State() State { return p.state }

func (p *Pipeline) Model() *Model { return p.model }

func (p *Pipeline) Training() *TrainingSet { return p.training }

func (p *Pipeline) Metrics() *metrics.Collector { return p.opts.Metrics }

// Train fits the model, asking the Labeler about uncertain pairs first when
// one is configured, then publishes the training log and settings. A static
// model is rejected before anything is written. Nothing is committed if ctx
// is cancelled before publishing.
func (p *Pipeline) Train(ctx context.Context) error {
	if p.state == StateStatic || p.model.Static() {
		return model.ErrStaticModel
	}
	log := p.opts.Logger
	stop := p.opts.Metrics.Time(metrics.OpTraining)

	m := p.model.clone()
	ts := p.training.clone()

	if p.opts.Labeler != nil && p.opts.MaxQueries > 0 {
		if err := p.activeLearn(ctx, m, ts); err != nil {
			return err
		}
	}
	if err := m.Fit(ts); err != nil {
		return err
	}
	elapsed := stop()
	log.Info("training complete", "match", len(ts.Match), "distinct", len(ts.Distinct), "elapsed", elapsed)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("train cancelled before publishing: %w", err)
	}
	if err := p.persist(m, ts); err != nil {
		return err
	}

	p.model = m
	p.training = ts
	p.state = StateTrained
	return nil
}

func (p *Pipeline) activeLearn(ctx context.Context, m *Model, ts *TrainingSet) error {
	asked := make(map[Pair]bool)
	answered := 0
	for answered < p.opts.MaxQueries {
		idx := p.mostUncertain(m, ts, asked)
		if idx < 0 {
			break
		}
		pair := p.sample[idx]
		asked[pair] = true
		a, b := p.records[pair.I], p.records[pair.J]

		label, err := p.opts.Labeler.Label(ctx, a, b)
		if errors.Is(err, ErrStopLabeling) {
			break
		}
		if err != nil {
			return fmt.Errorf("label pair %s/%s: %w", a.ID, b.ID, err)
		}
		answered++
		p.opts.Logger.Debug("labeled pair", "a", a.ID, "b", b.ID, "label", label.String())
		if ts.Add(a, b, label) && ts.ready() {
			if err := m.Fit(ts); err != nil {
				return err
			}
		}
	}
	return nil
}

// mostUncertain returns the sample index whose score is nearest 0.5, or -1.
func (p *Pipeline) mostUncertain(m *Model, ts *TrainingSet, asked map[Pair]bool) int {
	best, bestDist := -1, math.Inf(1)
	for i, pair := range p.sample {
		if asked[pair] {
			continue
		}
		a, b := p.records[pair.I], p.records[pair.J]
		if ts.Contains(a, b) {
			continue
		}
		d := math.Abs(m.Score(a, b) - 0.5)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// persist stages both artifacts before publishing either. Settings go last
// because their presence is what makes the next run skip training.
func (p *Pipeline) persist(m *Model, ts *TrainingSet) error {
	if p.opts.SettingsPath == "" && p.opts.TrainingPath == "" {
		return nil
	}
	var staged []*common.StagedFile
	defer func() {
		for _, s := range staged {
			s.Discard()
		}
	}()

	if p.opts.TrainingPath != "" {
		data, err := ts.encode()
		if err != nil {
			return fmt.Errorf("%w: encode training: %v", model.ErrPersistence, err)
		}
		s, err := common.Stage(p.opts.TrainingPath, writeBytes(data))
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
		staged = append(staged, s)
	}
	if p.opts.SettingsPath != "" {
		data, err := m.encode()
		if err != nil {
			return fmt.Errorf("%w: encode settings: %v", model.ErrPersistence, err)
		}
		s, err := common.Stage(p.opts.SettingsPath, writeBytes(data))
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
		staged = append(staged, s)
	}

	for _, s := range staged {
		if err := s.Publish(); err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
	}
	p.opts.Logger.Info("saved training data and settings", "training", p.opts.TrainingPath, "settings", p.opts.SettingsPath)
	return nil
}

func writeBytes(data []byte) func(w *bufio.Writer) error {
	return func(w *bufio.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

// Threshold computes and remembers the cutoff for this pipeline's records.
func (p *Pipeline) Threshold(ctx context.Context, recallWeight float64) (float64, error) {
	if p.state == StateUntrained {
		return 0, ErrNotTrained
	}
	stop := p.opts.Metrics.Time(metrics.OpThreshold)
	t, err := computeThreshold(p.model, p.records, recallWeight, p.opts.MaxBlockSize)
	elapsed := stop()
	if err != nil {
		return 0, err
	}
	p.opts.Logger.Info("computed threshold", "recall_weight", recallWeight, "threshold", t, "elapsed", elapsed)
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("threshold cancelled: %w", err)
	}
	p.threshold = t
	return t, nil
}

// Match clusters this pipeline's records at threshold.
func (p *Pipeline) Match(ctx context.Context, threshold float64) ([]model.Cluster, error) {
	if p.state == StateUntrained {
		return nil, ErrNotTrained
	}
	stop := p.opts.Metrics.Time(metrics.OpMatching)
	clusters, err := match(p.model, p.records, threshold, p.opts.MaxBlockSize, p.opts.MaxComponentSize)
	elapsed := stop()
	if err != nil {
		return nil, err
	}
	p.opts.Logger.Info("clustering complete", "clusters", len(clusters), "elapsed", elapsed)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("match cancelled: %w", err)
	}
	p.clusters = clusters
	p.state = StateMatched
	return clusters, nil
}

// Run trains when the model is trainable, then computes the threshold and
// clusters. ctx is only consulted between phases.
func (p *Pipeline) Run(ctx context.Context, recallWeight float64) (*Result, error) {
	if len(p.records) < 2 {
		return &Result{Timings: p.timings()}, nil
	}
	if p.state == StateUntrained {
		if err := p.Train(ctx); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := p.Threshold(ctx, recallWeight)
	if errors.Is(err, model.ErrNoCandidatePairs) {
		p.opts.Logger.Info("no candidate pairs; nothing to cluster")
		p.state = StateMatched
		return &Result{Timings: p.timings()}, nil
	}
	if err != nil {
		return nil, err
	}

	clusters, err := p.Match(ctx, t)
	if err != nil {
		return nil, err
	}
	return &Result{Threshold: t, Clusters: clusters, Timings: p.timings()}, nil
}

func (p *Pipeline) timings() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, op := range []string{metrics.OpSampling, metrics.OpTraining, metrics.OpThreshold, metrics.OpMatching} {
		if d, ok := p.Metrics().Last(op); ok {
			out[op] = d
		}
	}
	return out
}
