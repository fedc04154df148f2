package rpc

import (
	"strings"

	"github.com/siva-netizen/Promptify/internal/llm"
)

// RefineRequest is the body of POST /refine and the Connect Refine call.
// Provider, model and key apply to this request only.
type RefineRequest struct {
	Prompt        string `json:"prompt"`
	ModelProvider string `json:"model_provider,omitempty"`
	ModelName     string `json:"model_name,omitempty"`
	APIKey        string `json:"api_key,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	// Verbose adds critique and expert suggestions to the response.
	Verbose bool `json:"verbose,omitempty"`
}

// Override returns the per-request selection, or nil when none is set.
func (r RefineRequest) Override() *llm.Override {
	o := &llm.Override{
		Provider: strings.TrimSpace(r.ModelProvider),
		Model:    strings.TrimSpace(r.ModelName),
		APIKey:   strings.TrimSpace(r.APIKey),
	}
	if o.IsZero() {
		return nil
	}
	return o
}

// RefineResponse is the result of a completed refinement.
type RefineResponse struct {
	RunID             string `json:"run_id,omitempty"`
	RefinedPrompt     string `json:"refined_prompt"`
	OriginalPrompt    string `json:"original_prompt"`
	Intent            string `json:"intent"`
	Critique          string `json:"critique,omitempty"`
	ExpertSuggestions string `json:"expert_suggestions,omitempty"`
}

// ErrorResponse is returned with a non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// Event types streamed by /refine/stream and the Connect handler.
const (
	EventStage  = "stage"
	EventResult = "result"
	EventError  = "error"
)

// RefineEvent streams back progress from the daemon.
type RefineEvent struct {
	Type          string          `json:"type"` // stage|result|error
	RunID         string          `json:"run_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Stage         string          `json:"stage,omitempty"`
	Status        string          `json:"status,omitempty"` // stage_started|stage_completed|stage_failed
	Step          int             `json:"step,omitempty"`
	Total         int             `json:"total,omitempty"`
	ElapsedMS     int64           `json:"elapsed_ms,omitempty"`
	Result        *RefineResponse `json:"result,omitempty"`
	Error         *ErrorResponse  `json:"error,omitempty"`
	Done          bool            `json:"done,omitempty"`
}
