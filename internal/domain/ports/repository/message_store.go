package repository

import (
	"github.com/James230kk/Abtkar/internal/domain/model"
)

// EventKind classifies a store mutation for subscribers.
type EventKind int

const (
	EventSessionCreated EventKind = iota
	EventSessionDeleted
	EventMessageAppended
	EventContentUpdated
)

// Event describes one store mutation. MessageID is empty for
// session-level events.
type Event struct {
	Kind      EventKind
	SessionID string
	MessageID string
}

// MessageStore owns all sessions exclusively: identity generation, the
// most-recent-first session ordering, append-only message sequences and
// title derivation all live behind this port. Mutations are serialized;
// snapshots returned to callers are deep copies.
type MessageStore interface {
	// CreateSession allocates a new session, prepends it to the session
	// list and selects it.
	CreateSession() *model.Session

	// Session returns a snapshot of one session, or nil if absent.
	Session(id string) *model.Session

	// Sessions returns session snapshots, most recent first.
	Sessions() []*model.Session

	// SelectSession is a pure lookup: an absent id silently leaves the
	// selection empty.
	SelectSession(id string)

	// CurrentSessionID returns the selected session id, or "" when none
	// is selected.
	CurrentSessionID() string

	// DeleteSession removes a session; if it was selected the selection
	// becomes empty. Unknown ids are ignored.
	DeleteSession(id string)

	// AppendMessage appends a message with a store-generated id and
	// returns it. The first message appended to a session derives its
	// title. Returns domain.ErrNotFound when the session is gone.
	AppendMessage(sessionID string, role model.Role, content string) (model.Message, error)

	// UpdateMessageContent replaces the addressed message's content.
	// A deleted session or message makes this a silent no-op: that is
	// the defined behavior for a stream outliving its session.
	UpdateMessageContent(sessionID, messageID, content string)

	// Subscribe registers a mutation observer and returns its cancel
	// function. Observers are invoked synchronously, in mutation order.
	Subscribe(fn func(Event)) (cancel func())
}
