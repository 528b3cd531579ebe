package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/James230kk/Abtkar/internal/domain"
	"github.com/James230kk/Abtkar/internal/render"
)

// welcomeHints are the empty-state prompt suggestions shown by the
// presentation layer.
var welcomeHints = []string{
	"خطة تسويقية لمنتج جديد",
	"اكتب لي قصة قصيرة",
	"شرح الفيزياء ببساطة",
	"أفضل طرق تعلم اللغات",
}

type loginRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		http.Error(w, "Invalid email", http.StatusBadRequest)
		return
	}
	if _, err := s.auth.Mint(w, email); err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

type sessionSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"messageCount"`
	CreatedAt    int64  `json:"createdAt"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.chat.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			MessageCount: len(sess.Messages),
			CreatedAt:    sess.CreatedAt.UnixMilli(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions":         out,
		"currentSessionId": s.chat.CurrentSessionID(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.chat.NewSession()
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	s.chat.SelectSession(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]string{
		"currentSessionId": s.chat.CurrentSessionID(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.chat.DeleteSession(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

type submitRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

func (s *Server) handleSubmitTurn(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res, err := s.chat.SubmitTurn(r.Context(), req.SessionID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Empty submission", http.StatusBadRequest)
		case errors.Is(err, domain.ErrStreamActive):
			http.Error(w, "Session is busy", http.StatusConflict)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Session not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to submit turn", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleRendered(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.store.Session(id) == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	rendered := s.proj.Rendered(id)
	if rendered == nil {
		rendered = []render.RenderedMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": rendered})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.chat.ListModels(r.Context())
	if err != nil {
		http.Error(w, "Failed to list models", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"hints": welcomeHints})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
