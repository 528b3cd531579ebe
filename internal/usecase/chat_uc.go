package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/James230kk/Abtkar/internal/domain"
	"github.com/James230kk/Abtkar/internal/domain/model"
	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
	"github.com/James230kk/Abtkar/internal/domain/ports/repository"
	"github.com/James230kk/Abtkar/internal/infra/logging"
	"github.com/James230kk/Abtkar/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// SubmitResult identifies the two messages a submission appended.
type SubmitResult struct {
	SessionID      string `json:"sessionId"`
	UserMessageID  string `json:"userMessageId"`
	ModelMessageID string `json:"modelMessageId"`
}

// StreamEnd reports the terminal state of one stream to observers.
type StreamEnd struct {
	SessionID string
	MessageID string
	Status    model.StreamStatus
	Err       error
}

// ChatUseCase orchestrates session lifecycle and turn submission. It is
// the only component that starts streams, and it enforces the one active
// stream per session rule.
type ChatUseCase interface {
	NewSession() *model.Session
	SelectSession(id string)
	DeleteSession(id string)
	Sessions() []*model.Session
	CurrentSessionID() string

	// SubmitTurn appends the user turn plus a model placeholder and
	// starts streaming the reply. It returns immediately; streaming
	// proceeds asynchronously.
	SubmitTurn(ctx context.Context, sessionID, text string) (*SubmitResult, error)

	// ActiveStream returns a snapshot of the session's in-flight handle,
	// or nil when none is active.
	ActiveStream(sessionID string) *model.StreamHandle

	OnStreamEnd(fn func(StreamEnd)) (cancel func())

	ListModels(ctx context.Context) ([]string, error)
}

type chatUC struct {
	store     repository.MessageStore
	ai        adapter.AIServiceAdapter
	modelName string
	history   int

	mu     sync.Mutex
	active map[string]*streamAssembler

	endMu   sync.Mutex
	nextEnd int
	endSubs map[int]func(StreamEnd)

	log *zerolog.Logger
}

func NewChatUseCase(store repository.MessageStore, ai adapter.AIServiceAdapter, modelName string, historyWindow int, logger *zerolog.Logger) *chatUC {
	if historyWindow <= 0 {
		historyWindow = 32
	}
	return &chatUC{
		store:     store,
		ai:        ai,
		modelName: modelName,
		history:   historyWindow,
		active:    make(map[string]*streamAssembler),
		endSubs:   make(map[int]func(StreamEnd)),
		log:       logger,
	}
}

func (c *chatUC) NewSession() *model.Session { return c.store.CreateSession() }

func (c *chatUC) SelectSession(id string) { c.store.SelectSession(id) }

// DeleteSession removes the session without cancelling its stream: an
// in-flight handle completes or fails against a now-missing session and
// its writes become no-ops.
func (c *chatUC) DeleteSession(id string) { c.store.DeleteSession(id) }

func (c *chatUC) Sessions() []*model.Session { return c.store.Sessions() }

func (c *chatUC) CurrentSessionID() string { return c.store.CurrentSessionID() }

func (c *chatUC) ListModels(ctx context.Context) ([]string, error) {
	return c.ai.ListModels(ctx)
}

func (c *chatUC) SubmitTurn(ctx context.Context, sessionID, text string) (*SubmitResult, error) {
	defer logging.TraceDuration(c.log, "ChatUC.SubmitTurn")()

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Resolve the target session. An explicit id must exist; otherwise
	// fall back to the current selection, then a fresh session.
	if sessionID != "" {
		if c.store.Session(sessionID) == nil {
			return nil, domain.ErrNotFound
		}
	} else {
		sessionID = c.store.CurrentSessionID()
		if sessionID == "" || c.store.Session(sessionID) == nil {
			sessionID = c.store.CreateSession().ID
		}
	}

	c.mu.Lock()
	if _, busy := c.active[sessionID]; busy {
		c.mu.Unlock()
		return nil, domain.ErrStreamActive
	}
	userMsg, err := c.store.AppendMessage(sessionID, model.RoleUser, text)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	placeholder, err := c.store.AppendMessage(sessionID, model.RoleModel, "")
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	asm := newStreamAssembler(c.store, sessionID, placeholder.ID, c.log)
	c.active[sessionID] = asm
	c.mu.Unlock()

	// Conversation history is re-read from the store at submission time,
	// never captured earlier.
	history := c.buildHistory(sessionID, placeholder.ID)

	metrics.ObserveStreamStart(c.modelName)
	ctx = logging.WithSessID(ctx, sessionID)
	if n, err := c.ai.CountTokens(ctx, c.modelName, history); err == nil {
		logging.With(ctx, c.log).Debug().Int("prompt_tokens", n).Msg("turn submitted")
	}

	// The stream is detached from the caller's context: closing the
	// request or deleting the session must not abort the network call.
	go c.runStream(context.WithoutCancel(ctx), asm, history)

	return &SubmitResult{
		SessionID:      sessionID,
		UserMessageID:  userMsg.ID,
		ModelMessageID: placeholder.ID,
	}, nil
}

func (c *chatUC) runStream(ctx context.Context, asm *streamAssembler, history []adapter.Message) {
	err := asm.run(ctx, c.ai, c.modelName, history)
	handle := asm.snapshot()

	c.mu.Lock()
	delete(c.active, handle.SessionID)
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).
			Str("session_id", handle.SessionID).
			Str("message_id", handle.MessageID).
			Int("buffered", len(handle.Buffer)).
			Msg("stream failed; partial reply kept")
	} else {
		c.log.Debug().
			Str("session_id", handle.SessionID).
			Int("buffered", len(handle.Buffer)).
			Msg("stream done")
	}
	c.notifyEnd(StreamEnd{
		SessionID: handle.SessionID,
		MessageID: handle.MessageID,
		Status:    handle.Status,
		Err:       err,
	})
}

// buildHistory returns the session's recent turns, excluding the empty
// placeholder, as adapter messages.
func (c *chatUC) buildHistory(sessionID, placeholderID string) []adapter.Message {
	s := c.store.Session(sessionID)
	if s == nil {
		return nil
	}
	msgs := s.Messages
	if len(msgs) > 0 && msgs[len(msgs)-1].ID == placeholderID {
		msgs = msgs[:len(msgs)-1]
	}
	if len(msgs) > c.history {
		msgs = msgs[len(msgs)-c.history:]
	}
	out := make([]adapter.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, adapter.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func (c *chatUC) ActiveStream(sessionID string) *model.StreamHandle {
	c.mu.Lock()
	asm, ok := c.active[sessionID]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	h := asm.snapshot()
	return &h
}

func (c *chatUC) OnStreamEnd(fn func(StreamEnd)) func() {
	c.endMu.Lock()
	id := c.nextEnd
	c.nextEnd++
	c.endSubs[id] = fn
	c.endMu.Unlock()
	return func() {
		c.endMu.Lock()
		delete(c.endSubs, id)
		c.endMu.Unlock()
	}
}

func (c *chatUC) notifyEnd(ev StreamEnd) {
	c.endMu.Lock()
	fns := make([]func(StreamEnd), 0, len(c.endSubs))
	for _, fn := range c.endSubs {
		fns = append(fns, fn)
	}
	c.endMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
