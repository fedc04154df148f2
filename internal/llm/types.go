package llm

import (
	"context"
	"io"
	"strings"
)

// Role is the message role used in chat exchanges.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a single message exchanged with the model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	Name    string `json:"name,omitempty"`
}

// ChatRequest is the input for chat providers.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// Usage captures token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the result of a chat completion.
type ChatResponse struct {
	Message      ChatMessage
	FinishReason string
	Usage        Usage
	ProviderName string
	Model        string
}

// Provider is a wire client able to run one chat completion against a backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// SystemAndUser builds the two-message conversation every stage sends.
func SystemAndUser(system, user string) []ChatMessage {
	return []ChatMessage{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

// MaxErrorBodySize caps how much of a failed response body is kept in errors.
const MaxErrorBodySize = 64 * 1024

// ReadErrorBody reads at most MaxErrorBodySize bytes of r for error reporting.
func ReadErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, MaxErrorBodySize))
	return strings.TrimSpace(string(b))
}
