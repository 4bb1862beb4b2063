// Package pipeline runs the scoring pipeline from graph source to weights.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/graph"
	"github.com/ritzau/ic-analyzer/pkg/ic"
	"github.com/ritzau/ic-analyzer/pkg/labels"
	"github.com/ritzau/ic-analyzer/pkg/logging"
	"github.com/ritzau/ic-analyzer/pkg/metrics"
	"github.com/ritzau/ic-analyzer/pkg/model"
	"github.com/ritzau/ic-analyzer/pkg/nt"
	"github.com/ritzau/ic-analyzer/pkg/pubsub"
	"github.com/ritzau/ic-analyzer/pkg/source"
)

// Pipeline states published on pubsub.TopicPipelineStatus
const (
	StateIdle        = "idle"
	StateLoading     = "loading"
	StateBuilding    = "building"
	StateAggregating = "aggregating"
	StateScoring     = "scoring"
	StateReady       = "ready"
	StateError       = "error"
)

const totalSteps = 5

// Score is the result for a single hierarchy term
type Score struct {
	Term   string  `json:"term"`
	Label  string  `json:"label"`
	NT     int     `json:"nt"`
	IC     float64 `json:"ic"`
	Weight float64 `json:"weight"`
}

// Result is the outcome of one pipeline run
type Result struct {
	Reason      string                 `json:"reason"`
	Source      string                 `json:"source"`
	Finished    time.Time              `json:"finished"`
	Nodes       map[model.NodeType]int `json:"nodes"`
	Edges       int                    `json:"edges"`
	Diseases    int                    `json:"diseases"`
	Components  int                    `json:"components"`
	Unannotated []string               `json:"unannotated"`
	Summary     ic.Summary             `json:"summary"`
	Scores      []Score                `json:"scores"` // IC descending, ties by term
	Changes     *ScoreDiff             `json:"changes,omitempty"` // against the previous run, nil on the first

	index map[string]int
}

// Score returns the score of a term
func (r *Result) Score(term string) (Score, bool) {
	if r.index == nil {
		for _, s := range r.Scores {
			if s.Term == term {
				return s, true
			}
		}
		return Score{}, false
	}
	i, ok := r.index[term]
	if !ok {
		return Score{}, false
	}
	return r.Scores[i], true
}

// Top returns the first n scores, or all of them when n <= 0
func (r *Result) Top(n int) []Score {
	if n <= 0 || n >= len(r.Scores) {
		return r.Scores
	}
	return r.Scores[:n]
}

// Runner orchestrates pipeline runs
type Runner struct {
	cfg       *config.Config
	publisher pubsub.Publisher
	source    source.Source

	mu sync.Mutex // Prevent concurrent runs

	stateMu sync.RWMutex
	status  pubsub.PipelineStatus
	last    *Result
}

// Option configures a Runner
type Option func(*Runner)

// WithSource overrides the source selected from the configuration
func WithSource(s source.Source) Option {
	return func(r *Runner) {
		r.source = s
	}
}

// NewRunner creates a new runner. publisher may be nil.
func NewRunner(cfg *config.Config, publisher pubsub.Publisher, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		publisher: publisher,
		status:    pubsub.PipelineStatus{State: StateIdle, Message: "Waiting for first run", Total: totalSteps},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Last returns the result of the last successful run, or nil
func (r *Runner) Last() *Result {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.last
}

// Status returns the latest pipeline status
func (r *Runner) Status() pubsub.PipelineStatus {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.status
}

func (r *Runner) publishStatus(state, message string, step int, reason string) {
	status := pubsub.PipelineStatus{State: state, Message: message, Step: step, Total: totalSteps, Reason: reason}

	r.stateMu.Lock()
	r.status = status
	r.stateMu.Unlock()

	if r.publisher != nil {
		if err := r.publisher.Publish(pubsub.TopicPipelineStatus, state, status); err != nil {
			logging.Warn("Failed to publish pipeline status", "state", state, "error", err)
		}
	}
}

func (r *Runner) fail(step int, reason string, err error) error {
	r.publishStatus(StateError, err.Error(), step, reason)
	metrics.RecordRun(err)
	return err
}

// Run executes the pipeline once. reason is reported in status events, e.g. "initial run" or "graph changed".
func (r *Runner) Run(ctx context.Context, reason string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := logging.New("pipeline")
	logger.Info("Starting pipeline", "reason", reason)
	started := time.Now()

	// Phase 1: Load
	r.publishStatus(StateLoading, "Loading graph...", 1, reason)
	phase := time.Now()

	src := r.source
	if src == nil {
		var err error
		if src, err = source.ForConfig(r.cfg); err != nil {
			return nil, r.fail(1, reason, err)
		}
	}

	doc, err := src.Load(ctx, r.cfg)
	if err != nil {
		return nil, r.fail(1, reason, fmt.Errorf("loading graph from %s: %w", src.Name(), err))
	}

	names, err := labels.Load(r.cfg.Labels...)
	if err != nil {
		return nil, r.fail(1, reason, fmt.Errorf("loading labels: %w", err))
	}
	metrics.ObservePhase(StateLoading, phase)
	logger.Debug("Loaded graph", "source", src.Name(), "nodes", len(doc.Nodes), "edges", len(doc.Edges), "labels", len(names))

	if err := ctx.Err(); err != nil {
		return nil, r.fail(1, reason, err)
	}

	// Phase 2: Build
	r.publishStatus(StateBuilding, "Building ontology...", 2, reason)
	phase = time.Now()

	g, err := graph.FromModel(doc)
	if err != nil {
		return nil, r.fail(2, reason, fmt.Errorf("building ontology: %w", err))
	}

	counts := doc.CountByType()
	byType := make(map[string]int, len(counts))
	for t, n := range counts {
		byType[t.String()] = n
	}
	metrics.RecordGraph(byType, len(g.Edges()))
	metrics.ObservePhase(StateBuilding, phase)

	if err := ctx.Err(); err != nil {
		return nil, r.fail(2, reason, err)
	}

	// Phase 3: Aggregate
	r.publishStatus(StateAggregating, "Computing n(t)...", 3, reason)
	phase = time.Now()

	opts := []nt.Option{nt.WithWorkers(r.cfg.Workers)}
	if r.cfg.Annotation == config.AnnotationDirect {
		opts = append(opts, nt.WithDirectAnnotations())
	}
	counted, err := nt.Compute(g, model.NodeType(r.cfg.HierarchyType), opts...)
	if err != nil {
		return nil, r.fail(3, reason, fmt.Errorf("computing n(t): %w", err))
	}
	metrics.HierarchyTerms.Set(float64(len(counted.NT)))
	metrics.ObservePhase(StateAggregating, phase)

	// Phase 4: Score
	r.publishStatus(StateScoring, "Computing information content...", 4, reason)
	phase = time.Now()

	total := ic.TotalDiseases(g)
	values, err := ic.Compute(counted.NT, total)
	if err != nil {
		return nil, r.fail(4, reason, fmt.Errorf("computing IC: %w", err))
	}

	unannotated := ic.Unannotated(counted.NT)
	metrics.UnannotatedTerms.Set(float64(len(unannotated)))
	if len(unannotated) > 0 {
		logger.Warn("Terms without associated diseases", "count", len(unannotated), "excluded", r.cfg.ExcludeUnannotated)
	}
	if r.cfg.ExcludeUnannotated {
		values = values.Without(unannotated)
	}

	weights, err := ic.Weights(values, r.cfg.Scale, r.cfg.Offset)
	if err != nil {
		return nil, r.fail(4, reason, fmt.Errorf("computing weights: %w", err))
	}
	metrics.ObservePhase(StateScoring, phase)

	result := &Result{
		Reason:      reason,
		Source:      src.Name(),
		Finished:    time.Now(),
		Nodes:       counts,
		Edges:       len(g.Edges()),
		Diseases:    total,
		Components:  counted.Components,
		Unannotated: unannotated,
		Summary:     ic.Summarize(values),
	}
	result.Scores, result.index = scores(values, weights, counted.NT, func(term string) string {
		return displayName(names, doc, term)
	})

	r.stateMu.Lock()
	if r.last != nil {
		result.Changes = Diff(r.last, result)
	}
	r.last = result
	r.stateMu.Unlock()

	if result.Changes != nil {
		logger.Info("Scores changed since last run",
			"added", len(result.Changes.Added),
			"removed", len(result.Changes.Removed),
			"changed", len(result.Changes.Changed))
	}

	// Phase 5: Ready
	if r.publisher != nil {
		data := pubsub.ScoresData{
			Terms:       len(result.Scores),
			Diseases:    total,
			Unannotated: len(unannotated),
			MeanIC:      result.Summary.Mean,
			MaxIC:       result.Summary.Max,
		}
		if result.Changes != nil {
			data.Added = len(result.Changes.Added)
			data.Removed = len(result.Changes.Removed)
			data.Changed = len(result.Changes.Changed)
		}
		if err := r.publisher.Publish(pubsub.TopicScores, StateReady, data); err != nil {
			logger.Warn("Failed to publish scores", "error", err)
		}
	}
	r.publishStatus(StateReady, "Scores ready", totalSteps, reason)
	metrics.RecordRun(nil)

	logger.Info("Pipeline complete",
		"reason", reason,
		"terms", len(result.Scores),
		"diseases", total,
		"components", counted.Components,
		"duration", time.Since(started).Round(time.Millisecond))
	return result, nil
}

func scores(values, weights ic.Values, counts map[string]int, name func(string) string) ([]Score, map[string]int) {
	entries := values.Sorted()
	out := make([]Score, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		out[i] = Score{
			Term:   e.Term,
			Label:  name(e.Term),
			NT:     counts[e.Term],
			IC:     e.Value,
			Weight: weights[e.Term],
		}
		index[e.Term] = i
	}
	return out, index
}

// displayName prefers the label files, then the node's own label, then the id
func displayName(names labels.Map, doc *model.Graph, term string) string {
	if name := names.Name(term); name != term {
		return name
	}
	if node, ok := doc.Nodes[term]; ok && node.Label != "" {
		return node.Label
	}
	return term
}
