// Package service runs refinements for the CLI and daemon and turns raw
// backend failures into classified errors.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/invoker"
	"github.com/siva-netizen/Promptify/internal/llm"
	"github.com/siva-netizen/Promptify/internal/logging"
	"github.com/siva-netizen/Promptify/internal/observability"
)

// Request is one refinement.
type Request struct {
	Query    string
	Override *llm.Override
	// Observer, when set, receives stage events for this request only.
	Observer agent.Observer
}

// Service is safe for concurrent use; each request gets its own record.
type Service struct {
	pipeline *agent.Pipeline
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New wraps an existing pipeline.
func New(p *agent.Pipeline, logger *zap.Logger, metrics *observability.Metrics) *Service {
	return &Service{pipeline: p, logger: logging.OrNop(logger), metrics: metrics}
}

// FromConfig wires invoker, pipeline and service from cfg.
func FromConfig(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Service, error) {
	inv, err := invoker.FromConfig(cfg, logger, metrics)
	if err != nil {
		return nil, err
	}
	p := agent.New(inv, agent.WithLogger(logger), agent.WithMetrics(metrics))
	return New(p, logger, metrics), nil
}

// Refine runs the pipeline. Failures are classified into rate-limit,
// network, auth or generic errors and keep the failing stage.
func (s *Service) Refine(ctx context.Context, req Request) (*agent.Record, error) {
	p := s.pipeline
	if req.Observer != nil {
		p = p.Observe(req.Observer)
	}

	start := time.Now()
	rec, err := p.Run(ctx, req.Query, req.Override)
	if err != nil {
		err = apperr.Classify(err)
		s.metrics.RecordRefine(string(apperr.KindOf(err)), time.Since(start))
		s.logger.Warn("refine failed",
			zap.String("kind", string(apperr.KindOf(err))),
			zap.String("stage", apperr.StageOf(err)),
			zap.Error(err),
		)
		return nil, err
	}
	s.metrics.RecordRefine("", time.Since(start))
	return rec, nil
}

// StageNames lists the pipeline stages in run order.
func (s *Service) StageNames() []string {
	return s.pipeline.StageNames()
}
