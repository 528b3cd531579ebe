package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/James230kk/Abtkar/internal/domain"
	"github.com/James230kk/Abtkar/internal/domain/model"
	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
	"github.com/James230kk/Abtkar/internal/domain/ports/repository"
	"github.com/James230kk/Abtkar/internal/infra/metrics"
)

// streamAssembler drives one outstanding request. It consumes fragments
// from the AI adapter, grows the handle buffer by concatenation and
// publishes the full buffer to the message store after every fragment.
// Its only externally observable effect is that sequence of content
// updates, terminated by exactly one of natural completion or a reported
// failure.
type streamAssembler struct {
	store repository.MessageStore
	log   *zerolog.Logger

	mu     sync.Mutex
	handle model.StreamHandle
}

func newStreamAssembler(store repository.MessageStore, sessionID, messageID string, logger *zerolog.Logger) *streamAssembler {
	return &streamAssembler{
		store:  store,
		log:    logger,
		handle: *model.NewStreamHandle(sessionID, messageID),
	}
}

// snapshot returns a copy of the handle for observers.
func (a *streamAssembler) snapshot() model.StreamHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

// run blocks until the stream resolves. On transport error the buffer
// keeps whatever was accumulated and the message stays at its
// last-written content; the error is returned, never swallowed.
func (a *streamAssembler) run(ctx context.Context, ai adapter.AIServiceAdapter, modelName string, history []adapter.Message) error {
	usage, err := ai.ChatStream(ctx, modelName, history, a.apply)

	a.mu.Lock()
	if err != nil {
		a.handle.Status = model.StreamFailed
	} else {
		a.handle.Status = model.StreamDone
	}
	status := a.handle.Status
	a.mu.Unlock()

	metrics.ObserveStreamEnd(modelName, string(status))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStreamFailed, err)
	}
	metrics.ObserveStreamUsage(modelName, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	return nil
}

// apply merges one fragment. Fragments are applied strictly in arrival
// order; grounding metadata rides along without touching the buffer.
// A write after a terminal state is a defect: it is dropped and logged.
func (a *streamAssembler) apply(f adapter.Fragment) error {
	a.mu.Lock()
	if a.handle.Status.Terminal() {
		a.mu.Unlock()
		a.log.Error().
			Str("message_id", a.handle.MessageID).
			Msg("fragment after terminal state dropped")
		return nil
	}
	if f.Text == "" {
		a.mu.Unlock()
		return nil
	}
	a.handle.Status = model.StreamStreaming
	a.handle.Buffer += f.Text
	sessionID, messageID, buf := a.handle.SessionID, a.handle.MessageID, a.handle.Buffer
	a.mu.Unlock()

	a.store.UpdateMessageContent(sessionID, messageID, buf)
	metrics.ObserveFragment(len(f.Text))
	return nil
}
