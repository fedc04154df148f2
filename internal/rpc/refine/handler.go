package refine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/siva-netizen/Promptify/internal/observability"
	"github.com/siva-netizen/Promptify/internal/rpc"
)

// maxBodyBytes bounds request bodies; queries are capped far below this.
const maxBodyBytes = 1 << 20

// Handler serves POST /refine with a single JSON response.
type Handler struct {
	runner  *Runner
	metrics *observability.Metrics
}

// NewHandler constructs a handler instance.
func NewHandler(runner *Runner, metrics *observability.Metrics) *Handler {
	return &Handler{runner: runner, metrics: metrics}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r, h.metrics, "http")
	if !ok {
		return
	}

	rec, err := h.runner.Refine(r.Context(), req)
	if err != nil {
		writeJSON(w, StatusFor(err), ErrorFrom(err))
		return
	}
	writeJSON(w, http.StatusOK, ResponseFrom(rec, req.Verbose))
}

// StreamHandler serves POST /refine/stream as an NDJSON stream of RefineEvent.
type StreamHandler struct {
	runner  *Runner
	metrics *observability.Metrics
}

// NewStreamHandler constructs a streaming handler.
func NewStreamHandler(runner *Runner, metrics *observability.Metrics) *StreamHandler {
	return &StreamHandler{runner: runner, metrics: metrics}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r, h.metrics, "ndjson")
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.metrics.IncActiveSessions("ndjson")
	defer h.metrics.DecActiveSessions("ndjson")

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	writer := bufio.NewWriter(w)
	enc := json.NewEncoder(writer)
	for ev := range h.runner.Stream(r.Context(), req) {
		if err := enc.Encode(ev); err != nil {
			h.metrics.RecordTransportError("ndjson", "encode")
			break
		}
		if err := writer.Flush(); err != nil {
			h.metrics.RecordTransportError("ndjson", "write")
			break
		}
		flusher.Flush()
	}
}

// HealthHandler reports liveness.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "promptify"})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, metrics *observability.Metrics, transport string) (rpc.RefineRequest, bool) {
	var req rpc.RefineRequest
	if r.Method != http.MethodPost {
		metrics.RecordTransportError(transport, "method_not_allowed")
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, &rpc.ErrorResponse{Error: "method not allowed"})
		return req, false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		metrics.RecordTransportError(transport, "decode")
		writeJSON(w, http.StatusBadRequest, &rpc.ErrorResponse{Error: fmt.Sprintf("invalid request: %v", err), Kind: "validation"})
		return req, false
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
