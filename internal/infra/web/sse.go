package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/James230kk/Abtkar/internal/domain/ports/repository"
	"github.com/James230kk/Abtkar/internal/usecase"
)

type sseUpdate struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type sseEnd struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// handleEvents streams content snapshots for one session as server-sent
// events: an "update" event per store mutation and a terminal "end" event
// carrying the stream's final status. The feed also closes when the
// session is deleted or the client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.store.Session(id) == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The deleted signal travels out-of-band: a saturated updates channel
	// must never swallow the feed's terminator.
	updates := make(chan repository.Event, 64)
	deleted := make(chan struct{}, 1)
	cancelStore := s.store.Subscribe(func(ev repository.Event) {
		if ev.SessionID != id {
			return
		}
		if ev.Kind == repository.EventSessionDeleted {
			select {
			case deleted <- struct{}{}:
			default:
			}
			return
		}
		select {
		case updates <- ev:
		default:
			// Slow consumer; it will catch up from the next snapshot.
		}
	})
	defer cancelStore()

	ends := make(chan usecase.StreamEnd, 4)
	cancelEnd := s.chat.OnStreamEnd(func(ev usecase.StreamEnd) {
		if ev.SessionID != id {
			return
		}
		select {
		case ends <- ev:
		default:
		}
	})
	defer cancelEnd()

	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-deleted:
			writeSSE(w, "deleted", nil)
			flusher.Flush()
			return
		case ev := <-updates:
			if !s.emitSnapshot(w, id, ev) {
				// Session gone mid-feed: deletion raced the queued
				// update, so close the feed with its terminator.
				writeSSE(w, "deleted", nil)
				flusher.Flush()
				return
			}
			flusher.Flush()
		case ev := <-ends:
			// Queued snapshots precede the terminal event so the client
			// sees the final content before the status.
			for drained := false; !drained; {
				select {
				case uev := <-updates:
					s.emitSnapshot(w, id, uev)
				default:
					drained = true
				}
			}
			end := sseEnd{MessageID: ev.MessageID, Status: string(ev.Status)}
			if ev.Err != nil {
				end.Error = ev.Err.Error()
			}
			writeSSE(w, "end", end)
			flusher.Flush()
			return
		}
	}
}

// emitSnapshot writes the current content of the event's message as an
// "update" event. It reports false when the session no longer exists.
func (s *Server) emitSnapshot(w http.ResponseWriter, id string, ev repository.Event) bool {
	if ev.Kind != repository.EventContentUpdated && ev.Kind != repository.EventMessageAppended {
		return true
	}
	sess := s.store.Session(id)
	if sess == nil {
		return false
	}
	for i := range sess.Messages {
		if sess.Messages[i].ID == ev.MessageID {
			writeSSE(w, "update", sseUpdate{
				MessageID: ev.MessageID,
				Content:   sess.Messages[i].Content,
			})
			break
		}
	}
	return true
}

func writeSSE(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		b, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", b)
	} else {
		fmt.Fprint(w, "data: {}\n")
	}
	fmt.Fprint(w, "\n")
}
