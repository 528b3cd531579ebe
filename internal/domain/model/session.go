package model

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// DefaultTitle is the placeholder title a session carries until its first
// user message arrives.
const DefaultTitle = "محادثة جديدة"

// TitleMaxRunes caps a derived session title at 30 characters.
const TitleMaxRunes = 30

// Message is one turn in a session. User content is immutable after
// creation; model content grows by full-buffer replacement while its
// stream is in flight and is frozen afterwards.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a titled, ordered conversation thread. Messages are kept in
// strict chronological append order.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Title:     DefaultTitle,
		Messages:  make([]Message, 0, 8),
		CreatedAt: time.Now(),
	}
}

// Append adds a message at the end of the thread.
func (s *Session) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// DeriveTitle sets the title from the first message. It is called exactly
// once, on the 0 -> 1 message transition; the title never changes again.
func (s *Session) DeriveTitle() {
	if len(s.Messages) == 0 {
		return
	}
	s.Title = TruncateTitle(s.Messages[0].Content)
}

// TruncateTitle cuts s at TitleMaxRunes characters, boundary-exact for
// multi-byte text.
func TruncateTitle(s string) string {
	r := []rune(s)
	if len(r) <= TitleMaxRunes {
		return s
	}
	return string(r[:TitleMaxRunes])
}

// Clone returns a deep copy so callers can hold a snapshot without
// observing later mutations.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}
