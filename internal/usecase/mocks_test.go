//go:build !integration

package usecase

import (
	"context"
	"sync"

	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
)

// fakeAI is a scripted in-memory implementation of the AI port. Each
// ChatStream call replays the configured fragments in order. When gate
// is set, every fragment waits for one token, letting tests interleave
// store operations with fragment delivery deterministically.
type fakeAI struct {
	mu        sync.Mutex
	fragments []string
	err       error // returned after all fragments were delivered

	gate chan struct{}

	calls     int
	histories [][]adapter.Message
}

func newFakeAI(fragments []string, err error) *fakeAI {
	return &fakeAI{fragments: fragments, err: err}
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return len(messages), nil
}

func (f *fakeAI) ChatStream(ctx context.Context, model string, messages []adapter.Message, onFragment adapter.OnFragment) (adapter.Usage, error) {
	f.mu.Lock()
	f.calls++
	history := make([]adapter.Message, len(messages))
	copy(history, messages)
	f.histories = append(f.histories, history)
	fragments := f.fragments
	gate := f.gate
	f.mu.Unlock()

	for _, text := range fragments {
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				return adapter.Usage{}, ctx.Err()
			}
		}
		if err := onFragment(adapter.Fragment{Text: text}); err != nil {
			return adapter.Usage{}, err
		}
	}
	return adapter.Usage{}, f.err
}

func (f *fakeAI) lastHistory() []adapter.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.histories) == 0 {
		return nil
	}
	return f.histories[len(f.histories)-1]
}
