package refine

import (
	"context"
	"net/http"

	"github.com/bufbuild/connect-go"

	"github.com/siva-netizen/Promptify/internal/observability"
	"github.com/siva-netizen/Promptify/internal/rpc"
	"github.com/siva-netizen/Promptify/internal/rpc/connectjson"
)

const ConnectRefineProcedure = "/promptify.v1.RefineService/Refine"

// NewConnectHandler builds a Connect server-stream handler for Refine.
func NewConnectHandler(runner *Runner, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectRefineHandler{runner: runner, metrics: metrics}
	return ConnectRefineProcedure, connect.NewServerStreamHandler(ConnectRefineProcedure, h.handle, connect.WithCodec(connectjson.Codec{}))
}

type connectRefineHandler struct {
	runner  *Runner
	metrics *observability.Metrics
}

func (h *connectRefineHandler) handle(ctx context.Context, req *connect.Request[rpc.RefineRequest], stream *connect.ServerStream[rpc.RefineEvent]) error {
	h.metrics.IncActiveSessions("connect")
	defer h.metrics.DecActiveSessions("connect")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for ev := range h.runner.Stream(ctx, *req.Msg) {
		if err := stream.Send(&ev); err != nil {
			h.metrics.RecordTransportError("connect", "send")
			return err
		}
	}
	return nil
}
