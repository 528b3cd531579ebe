// Package render maps message content through the markup transformer for
// the presentation layer. It is stateless beyond a memoization cache.
package render

import (
	"sync"

	"github.com/James230kk/Abtkar/internal/domain/model"
	"github.com/James230kk/Abtkar/internal/domain/ports/repository"
	"github.com/James230kk/Abtkar/internal/markdown"
)

// RenderedMessage pairs a message with its transformed document.
type RenderedMessage struct {
	ID        string            `json:"id"`
	Role      model.Role        `json:"role"`
	Content   string            `json:"content"`
	Document  markdown.Document `json:"document"`
	Timestamp int64             `json:"timestamp"`
}

type cacheEntry struct {
	content string
	doc     markdown.Document
}

// Projection subscribes to store changes and re-derives each message's
// structured document on demand. Transform results are memoized per
// message and invalidated when the message's content changes.
type Projection struct {
	store  repository.MessageStore
	cancel func()

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(store repository.MessageStore) *Projection {
	p := &Projection{
		store: store,
		cache: make(map[string]cacheEntry),
	}
	p.cancel = store.Subscribe(p.onEvent)
	return p
}

// Close detaches the projection from the store.
func (p *Projection) Close() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Projection) onEvent(ev repository.Event) {
	switch ev.Kind {
	case repository.EventContentUpdated:
		p.mu.Lock()
		delete(p.cache, ev.MessageID)
		p.mu.Unlock()
	case repository.EventSessionDeleted:
		// Entries of deleted messages are unreachable; drop everything
		// rather than track session membership.
		p.mu.Lock()
		p.cache = make(map[string]cacheEntry)
		p.mu.Unlock()
	}
}

// Rendered returns the session's messages with transformed documents,
// or nil when the session is absent.
func (p *Projection) Rendered(sessionID string) []RenderedMessage {
	s := p.store.Session(sessionID)
	if s == nil {
		return nil
	}
	out := make([]RenderedMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, RenderedMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Document:  p.transform(m.ID, m.Content),
			Timestamp: m.Timestamp.UnixMilli(),
		})
	}
	return out
}

// Transform exposes the raw markup transform to the presentation layer.
func (p *Projection) Transform(content string) markdown.Document {
	return markdown.Transform(content)
}

func (p *Projection) transform(messageID, content string) markdown.Document {
	p.mu.Lock()
	if e, ok := p.cache[messageID]; ok && e.content == content {
		p.mu.Unlock()
		return e.doc
	}
	p.mu.Unlock()

	doc := markdown.Transform(content)

	p.mu.Lock()
	p.cache[messageID] = cacheEntry{content: content, doc: doc}
	p.mu.Unlock()
	return doc
}
