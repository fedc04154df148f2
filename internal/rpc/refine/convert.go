package refine

import (
	"net/http"

	"github.com/siva-netizen/Promptify/internal/agent"
	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/rpc"
)

// ResponseFrom converts a finished record. Critique and suggestions are
// included only when verbose is set.
func ResponseFrom(rec *agent.Record, verbose bool) *rpc.RefineResponse {
	resp := &rpc.RefineResponse{
		RunID:          rec.RunID,
		RefinedPrompt:  rec.FinalPromptDraft,
		OriginalPrompt: rec.UserQuery,
		Intent:         string(rec.Intent),
	}
	if verbose {
		resp.Critique = rec.CritiqueText()
		resp.ExpertSuggestions = rec.ExpertSuggestions
	}
	return resp
}

// ErrorFrom describes err for clients.
func ErrorFrom(err error) *rpc.ErrorResponse {
	return &rpc.ErrorResponse{
		Error: err.Error(),
		Kind:  string(apperr.KindOf(err)),
		Stage: apperr.StageOf(err),
		Hint:  apperr.HintOf(err),
	}
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConfiguration:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindRateLimit:
		return http.StatusTooManyRequests
	case apperr.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
