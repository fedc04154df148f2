package refine

import (
	"context"

	"go.uber.org/zap"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/logging"
	"github.com/siva-netizen/Promptify/internal/rpc"
	"github.com/siva-netizen/Promptify/internal/service"
)

// Refiner runs one refinement. It is satisfied by *service.Service.
type Refiner interface {
	Refine(ctx context.Context, req service.Request) (*agent.Record, error)
}

// Runner bridges the refinement service to streamed RPC events.
type Runner struct {
	refiner Refiner
	logger  *zap.Logger
}

// NewRunner constructs a Runner.
func NewRunner(refiner Refiner, logger *zap.Logger) *Runner {
	return &Runner{refiner: refiner, logger: logging.OrNop(logger)}
}

// Refine runs req synchronously.
func (r *Runner) Refine(ctx context.Context, req rpc.RefineRequest) (*agent.Record, error) {
	return r.refiner.Refine(ctx, service.Request{Query: req.Prompt, Override: req.Override()})
}

// Stream runs req and emits one event per stage transition followed by a
// final result or error event. The channel is closed when the run ends or
// ctx is cancelled.
func (r *Runner) Stream(ctx context.Context, req rpc.RefineRequest) <-chan rpc.RefineEvent {
	out := make(chan rpc.RefineEvent, 16)
	go func() {
		defer close(out)

		send := func(ev rpc.RefineEvent) bool {
			ev.CorrelationID = req.CorrelationID
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		observer := agent.ObserverFunc(func(e agent.Event) {
			send(rpc.RefineEvent{
				Type:      rpc.EventStage,
				RunID:     e.RunID,
				Stage:     e.Stage,
				Status:    string(e.Kind),
				Step:      e.Index + 1,
				Total:     e.Total,
				ElapsedMS: e.Elapsed.Milliseconds(),
			})
		})

		rec, err := r.refiner.Refine(ctx, service.Request{
			Query:    req.Prompt,
			Override: req.Override(),
			Observer: observer,
		})
		if err != nil {
			r.logger.Debug("stream refine failed", zap.String("correlation_id", req.CorrelationID), zap.Error(err))
			send(rpc.RefineEvent{Type: rpc.EventError, Error: ErrorFrom(err), Done: true})
			return
		}
		send(rpc.RefineEvent{Type: rpc.EventResult, RunID: rec.RunID, Result: ResponseFrom(rec, req.Verbose), Done: true})
	}()
	return out
}
