package refine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/rpc"
	"github.com/siva-netizen/Promptify/internal/service"
)

// fakeRefiner emits the four stage events and returns a fixed record.
type fakeRefiner struct {
	err  error
	reqs []service.Request
}

func (f *fakeRefiner) Refine(_ context.Context, req service.Request) (*agent.Record, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	crit := "- Missing Context: platform"
	rec := &agent.Record{
		RunID:             "run-1",
		UserQuery:         req.Query,
		Intent:            agent.IntentBuilder,
		Critique:          &crit,
		ExpertSuggestions: "- use websockets",
		FinalPromptDraft:  "Build a chat app for [PLATFORM].",
	}
	if req.Observer != nil {
		for i, stage := range []string{agent.StageTriage, agent.StageCritic, agent.StageExpert, agent.StageSmith} {
			req.Observer.OnEvent(agent.Event{RunID: rec.RunID, Stage: stage, Index: i, Total: 4, Kind: agent.EventStageCompleted})
		}
	}
	return rec, nil
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRefineHandlerReturnsResult(t *testing.T) {
	refiner := &fakeRefiner{}
	h := NewHandler(NewRunner(refiner, nil), nil)

	rr := post(t, h, "/refine", `{"prompt":"build a chat app","model_provider":"openai","model_name":"gpt-4o","api_key":"sk-req"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp rpc.RefineResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Build a chat app for [PLATFORM].", resp.RefinedPrompt)
	require.Equal(t, "build a chat app", resp.OriginalPrompt)
	require.Equal(t, "BUILDER", resp.Intent)
	require.Empty(t, resp.Critique)

	require.Len(t, refiner.reqs, 1)
	o := refiner.reqs[0].Override
	require.NotNil(t, o)
	require.Equal(t, "openai", o.Provider)
	require.Equal(t, "gpt-4o", o.Model)
	require.Equal(t, "sk-req", o.APIKey)
}

func TestRefineHandlerVerboseAddsDetails(t *testing.T) {
	h := NewHandler(NewRunner(&fakeRefiner{}, nil), nil)

	rr := post(t, h, "/refine", `{"prompt":"q","verbose":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp rpc.RefineResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "- Missing Context: platform", resp.Critique)
	require.Equal(t, "- use websockets", resp.ExpertSuggestions)
}

func TestRefineHandlerNoOverrideWhenUnset(t *testing.T) {
	refiner := &fakeRefiner{}
	h := NewHandler(NewRunner(refiner, nil), nil)

	rr := post(t, h, "/refine", `{"prompt":"q"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Nil(t, refiner.reqs[0].Override)
}

func TestRefineHandlerMapsErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apperr.Validation("Query cannot be empty", "provide a query"), http.StatusBadRequest, "validation"},
		{apperr.Configuration("unknown provider", ""), http.StatusBadRequest, "configuration"},
		{apperr.Classify(apperr.Pipeline("triage", apperr.LLM(errStr("status 429")))), http.StatusTooManyRequests, "rate_limit"},
		{apperr.Classify(apperr.Pipeline("critic", apperr.LLM(errStr("status 401: bad key")))), http.StatusUnauthorized, "auth"},
		{apperr.Classify(apperr.Pipeline("smith", apperr.LLM(errStr("connection refused")))), http.StatusBadGateway, "network"},
		{apperr.Classify(apperr.Pipeline("expert", apperr.LLM(errStr("boom")))), http.StatusInternalServerError, "llm"},
	}
	for _, tc := range cases {
		h := NewHandler(NewRunner(&fakeRefiner{err: tc.err}, nil), nil)
		rr := post(t, h, "/refine", `{"prompt":"q"}`)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())

		var resp rpc.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, tc.kind, resp.Kind)
		require.NotEmpty(t, resp.Error)
	}
}

func TestRefineHandlerRejectsBadInput(t *testing.T) {
	h := NewHandler(NewRunner(&fakeRefiner{}, nil), nil)

	rr := post(t, h, "/refine", `{not json`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/refine", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStreamHandlerEmitsStagesThenResult(t *testing.T) {
	h := NewStreamHandler(NewRunner(&fakeRefiner{}, nil), nil)

	rr := post(t, h, "/refine/stream", `{"prompt":"build a chat app","correlation_id":"c-1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/x-ndjson", rr.Header().Get("Content-Type"))

	var events []rpc.RefineEvent
	scanner := bufio.NewScanner(rr.Body)
	for scanner.Scan() {
		var ev rpc.RefineEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}

	require.Len(t, events, 5)
	for i, ev := range events[:4] {
		require.Equal(t, rpc.EventStage, ev.Type)
		require.Equal(t, i+1, ev.Step)
		require.Equal(t, "c-1", ev.CorrelationID)
	}
	last := events[4]
	require.Equal(t, rpc.EventResult, last.Type)
	require.True(t, last.Done)
	require.Equal(t, "Build a chat app for [PLATFORM].", last.Result.RefinedPrompt)
}

func TestStreamHandlerEmitsErrorEvent(t *testing.T) {
	h := NewStreamHandler(NewRunner(&fakeRefiner{err: apperr.Validation("Query cannot be empty", "")}, nil), nil)

	rr := post(t, h, "/refine/stream", `{"prompt":""}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var ev rpc.RefineEvent
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(rr.Body.Bytes()), &ev))
	require.Equal(t, rpc.EventError, ev.Type)
	require.Equal(t, "validation", ev.Error.Kind)
	require.True(t, ev.Done)
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok","service":"promptify"}`, rr.Body.String())
}

type errStr string

func (e errStr) Error() string { return string(e) }
