// Package memstore holds the in-process session store. Sessions live for
// the lifetime of the process only; there is no persistence layer behind
// this store.
package memstore

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/James230kk/Abtkar/internal/domain"
	"github.com/James230kk/Abtkar/internal/domain/model"
	"github.com/James230kk/Abtkar/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.MessageStore = (*Store)(nil)

// Store is the single owner of all sessions. One mutex serializes every
// mutation; subscribers are notified synchronously in mutation order.
type Store struct {
	mu       sync.Mutex
	order    []string // session ids, most recent first
	sessions map[string]*model.Session
	selected string

	entropy *ulid.MonotonicEntropy

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(repository.Event)

	log *zerolog.Logger
}

func New(logger *zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*model.Session),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		subs:     make(map[int]func(repository.Event)),
		log:      logger,
	}
}

func (st *Store) CreateSession() *model.Session {
	st.mu.Lock()
	s := model.NewSession(uuid.NewString())
	st.sessions[s.ID] = s
	st.order = append([]string{s.ID}, st.order...)
	st.selected = s.ID
	snap := s.Clone()
	st.mu.Unlock()

	st.log.Debug().Str("session_id", s.ID).Msg("session created")
	st.notify(repository.Event{Kind: repository.EventSessionCreated, SessionID: s.ID})
	return snap
}

func (st *Store) Session(id string) *model.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil
	}
	return s.Clone()
}

func (st *Store) Sessions() []*model.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]*model.Session, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, st.sessions[id].Clone())
	}
	return out
}

// SelectSession makes id the current session. An absent id clears the
// selection instead of keeping the previous one.
func (st *Store) SelectSession(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; ok {
		st.selected = id
		return
	}
	st.selected = ""
}

func (st *Store) CurrentSessionID() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.selected
}

func (st *Store) DeleteSession(id string) {
	st.mu.Lock()
	if _, ok := st.sessions[id]; !ok {
		st.mu.Unlock()
		return
	}
	delete(st.sessions, id)
	for i, sid := range st.order {
		if sid == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
	if st.selected == id {
		st.selected = ""
	}
	st.mu.Unlock()

	st.log.Debug().Str("session_id", id).Msg("session deleted")
	st.notify(repository.Event{Kind: repository.EventSessionDeleted, SessionID: id})
}

func (st *Store) AppendMessage(sessionID string, role model.Role, content string) (model.Message, error) {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return model.Message{}, domain.ErrNotFound
	}
	now := time.Now()
	m := model.Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), st.entropy).String(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	first := len(s.Messages) == 0
	s.Append(m)
	if first && role == model.RoleUser {
		s.DeriveTitle()
	}
	st.mu.Unlock()

	st.notify(repository.Event{Kind: repository.EventMessageAppended, SessionID: sessionID, MessageID: m.ID})
	return m, nil
}

func (st *Store) UpdateMessageContent(sessionID, messageID, content string) {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	if !ok {
		// The stream outlived its session; the write is dropped.
		st.mu.Unlock()
		return
	}
	updated := false
	for i := range s.Messages {
		if s.Messages[i].ID == messageID {
			s.Messages[i].Content = content
			updated = true
			break
		}
	}
	st.mu.Unlock()

	if updated {
		st.notify(repository.Event{Kind: repository.EventContentUpdated, SessionID: sessionID, MessageID: messageID})
	}
}

func (st *Store) Subscribe(fn func(repository.Event)) func() {
	st.subMu.Lock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	st.subMu.Unlock()
	return func() {
		st.subMu.Lock()
		delete(st.subs, id)
		st.subMu.Unlock()
	}
}

func (st *Store) notify(ev repository.Event) {
	st.subMu.Lock()
	fns := make([]func(repository.Event), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
