package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/llm"
	"github.com/siva-netizen/Promptify/internal/logging"
	"github.com/siva-netizen/Promptify/internal/observability"
)

// EventKind labels a pipeline progress event.
type EventKind string

const (
	EventStageStarted   EventKind = "stage_started"
	EventStageCompleted EventKind = "stage_completed"
	EventStageFailed    EventKind = "stage_failed"
)

// Event reports progress of one stage.
type Event struct {
	RunID   string
	Stage   string
	Index   int
	Total   int
	Kind    EventKind
	Elapsed time.Duration
	// Record is a snapshot taken after a completed stage merged its update.
	Record *Record
	Err    error
}

// Observer receives stage events synchronously on the run's goroutine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Pipeline runs its stages strictly in order over one record per run.
// A Pipeline holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	stages   []Stage
	logger   *zap.Logger
	metrics  *observability.Metrics
	observer Observer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logging.OrNop(l) }
}

// WithMetrics records per-stage durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithStages replaces the default stage list.
func WithStages(stages ...Stage) Option {
	return func(p *Pipeline) { p.stages = stages }
}

// New builds the Triage, Critic, Expert, Smith pipeline over inv.
func New(inv Invoker, opts ...Option) *Pipeline {
	p := &Pipeline{
		stages: DefaultStages(inv),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Observe returns a copy of p that reports events to obs.
func (p *Pipeline) Observe(obs Observer) *Pipeline {
	c := *p
	c.observer = obs
	return &c
}

// StageNames returns the stage names in run order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run validates query, then runs every stage over a fresh record.
func (p *Pipeline) Run(ctx context.Context, query string, override *llm.Override) (*Record, error) {
	cleaned, err := ValidateQuery(query)
	if err != nil {
		return nil, err
	}
	return p.RunRecord(ctx, NewRecord(cleaned, override))
}

// RunRecord runs every stage over rec, merging each update as it arrives.
// The first stage failure aborts the run; no record is returned then.
func (p *Pipeline) RunRecord(ctx context.Context, rec *Record) (*Record, error) {
	if _, err := ValidateQuery(rec.UserQuery); err != nil {
		return nil, err
	}
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	logger := p.logger.With(zap.String("run_id", rec.RunID))
	logger.Info("refine started", zap.Int("query_chars", len(rec.UserQuery)))

	started := time.Now()
	for i, stage := range p.stages {
		name := stage.Name()
		if err := ctx.Err(); err != nil {
			logger.Warn("refine cancelled", zap.String("stage", name), zap.Error(err))
			return nil, apperr.Pipeline(name, err)
		}

		p.emit(Event{RunID: rec.RunID, Stage: name, Index: i, Total: len(p.stages), Kind: EventStageStarted})
		stageStart := time.Now()
		update, err := stage.Apply(ctx, *rec)
		elapsed := time.Since(stageStart)
		p.metrics.RecordStage(name, err == nil, elapsed)

		if err != nil {
			logger.Error("stage failed", zap.String("stage", name), zap.Duration("elapsed", elapsed), zap.Error(err))
			p.emit(Event{RunID: rec.RunID, Stage: name, Index: i, Total: len(p.stages), Kind: EventStageFailed, Elapsed: elapsed, Err: err})
			return nil, apperr.Pipeline(name, err)
		}

		rec.Merge(update)
		logger.Debug("stage completed", zap.String("stage", name), zap.Duration("elapsed", elapsed))
		p.emit(Event{RunID: rec.RunID, Stage: name, Index: i, Total: len(p.stages), Kind: EventStageCompleted, Elapsed: elapsed, Record: rec.Clone()})
	}

	logger.Info("refine completed",
		zap.String("intent", string(rec.Intent)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return rec, nil
}

func (p *Pipeline) emit(e Event) {
	if p.observer != nil {
		p.observer.OnEvent(e)
	}
}
