package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorRendersHintAndStage(t *testing.T) {
	err := Pipeline("critic", Configuration("unknown provider: foo", "pick one of: openai"))

	require.Equal(t, KindConfiguration, KindOf(err))
	require.Equal(t, "critic", StageOf(err))
	require.Equal(t, "pick one of: openai", HintOf(err))
	require.Contains(t, err.Error(), "critic stage: pipeline aborted: unknown provider: foo")
	require.Contains(t, err.Error(), "hint: pick one of: openai")
}

func TestIsWalksChain(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Pipeline("smith", LLM(errors.New("boom"))))

	require.True(t, Is(err, KindPipeline))
	require.True(t, Is(err, KindLLM))
	require.False(t, Is(err, KindValidation))
	require.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		raw  error
		kind Kind
	}{
		{"rate limit status", errors.New("openai: status 429: slow down"), KindRateLimit},
		{"rate limit text", errors.New("Rate limit reached for requests"), KindRateLimit},
		{"rate limit genai", errors.New("gemini: Error 429, Message: quota exhausted"), KindRateLimit},
		{"digits in token count", errors.New("openai: status 400: prompt has 4290 tokens, limit 1429"), KindLLM},
		{"digits in request id", errors.New("upstream failed, request id req_429abc"), KindLLM},
		{"connection", errors.New("dial tcp: connection refused"), KindNetwork},
		{"deadline", fmt.Errorf("send request: %w", context.DeadlineExceeded), KindNetwork},
		{"auth", errors.New("invalid api key provided"), KindAuth},
		{"unauthorized", errors.New("anthropic: status 401: unauthorized"), KindAuth},
		{"generic", errors.New("model exploded"), KindLLM},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify(Pipeline("expert", LLM(tc.raw)))
			require.Equal(t, tc.kind, KindOf(err))
			require.Equal(t, "expert", StageOf(err))
			require.NotEmpty(t, HintOf(err))
			require.ErrorIs(t, err, tc.raw)
		})
	}
}

func TestClassifyLeavesTypedErrorsAlone(t *testing.T) {
	v := Validation("Query cannot be empty", "")
	require.Same(t, v, Classify(v))

	c := Pipeline("triage", Configuration("missing key", "set it"))
	require.Same(t, c, Classify(c))

	require.NoError(t, Classify(nil))
}
