package ai

import (
	"context"
	"strings"
	"time"

	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements the AI port for local/dev runs. It replays a
// canned reply as a fragment stream instead of calling a provider, so
// the whole stack works without API keys.
type NoopAIAdapter struct {
	reply string
	delay time.Duration
}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{
		reply: "# مرحباً\nهذا رد **تجريبي** من مساعد ابتكار.\n- يعمل البث\n- بدون مفاتيح",
		delay: 50 * time.Millisecond,
	}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop"}, nil
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(strings.Fields(m.Content))
	}
	return n, nil
}

func (a *NoopAIAdapter) ChatStream(ctx context.Context, model string, messages []adapter.Message, onFragment adapter.OnFragment) (adapter.Usage, error) {
	words := strings.SplitAfter(a.reply, " ")
	for _, w := range words {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return adapter.Usage{}, ctx.Err()
		}
		if err := onFragment(adapter.Fragment{Text: w}); err != nil {
			return adapter.Usage{}, err
		}
	}
	return adapter.Usage{CompletionTokens: len(words), TotalTokens: len(words)}, nil
}
