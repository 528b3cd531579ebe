package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user" | "model" | "system"
	Content string `json:"content"`
}

// ModelInfo describes a model.
type ModelInfo struct {
	Name        string
	Description string
	MaxTokens   int
	Supports    []string
}

// Usage for a single chat call, as reported by the provider (best-effort).
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GroundingSource is one web source attached to a fragment when the
// provider grounds its answer in search results.
type GroundingSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Fragment is one incremental piece of a streamed reply. Grounding is
// optional auxiliary metadata; consumers that only assemble text must
// ignore it.
type Fragment struct {
	Text      string
	Grounding []GroundingSource
}

// OnFragment receives fragments in arrival order. Returning an error
// aborts the stream.
type OnFragment func(Fragment) error

// AIServiceAdapter is the port for LLM chat.
type AIServiceAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// ChatStream sends the conversation and delivers the reply as an
	// ordered fragment sequence. It returns after the provider signals
	// completion or failure; onFragment is never called after return.
	ChatStream(ctx context.Context, model string, messages []Message, onFragment OnFragment) (Usage, error)
}
