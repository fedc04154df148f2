package daemon

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/config"
	"github.com/siva-netizen/Promptify/internal/observability"
	"github.com/siva-netizen/Promptify/internal/rpc/refine"
	"github.com/siva-netizen/Promptify/internal/service"
)

type stubRefiner struct{}

func (stubRefiner) Refine(_ context.Context, req service.Request) (*agent.Record, error) {
	return &agent.Record{RunID: "r", UserQuery: req.Query, Intent: agent.IntentMentor, FinalPromptDraft: "refined"}, nil
}

func newTestServer(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	metrics := observability.NewMetrics()
	return NewServerWith(cfg, refine.NewRunner(stubRefiner{}, nil), metrics, nil).Handler()
}

func TestServerRoutesRefineAndHealth(t *testing.T) {
	h := newTestServer(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/refine", bytes.NewBufferString(`{"prompt":"teach me go"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"refined_prompt":"refined"`)
}

func TestMetricsEndpointHonoursConfig(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Server.MetricsEnabled = false })
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	h = newTestServer(t, func(c *config.Config) { c.Server.MetricsEnabled = true })
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/refine/stream", strings.NewReader(`{"prompt":"q"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"type":"result"`)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "promptify_transport_active_sessions")
}

func TestNDJSONTransportSkipsConnect(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Server.Transport = "ndjson" })
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, refine.ConnectRefineProcedure, strings.NewReader(`{}`)))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
