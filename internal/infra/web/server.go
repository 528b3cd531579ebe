package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/James230kk/Abtkar/internal/config"
	"github.com/James230kk/Abtkar/internal/domain/ports/repository"
	"github.com/James230kk/Abtkar/internal/infra/logging"
	"github.com/James230kk/Abtkar/internal/infra/metrics"
	"github.com/James230kk/Abtkar/internal/render"
	"github.com/James230kk/Abtkar/internal/usecase"
)

// Server exposes the session-export surface over HTTP: the session list
// plus the four controller operations, a rendered-document projection
// and a per-session SSE feed of streaming updates.
type Server struct {
	chat  usecase.ChatUseCase
	store repository.MessageStore
	proj  *render.Projection
	auth  *AuthManager
	log   *zerolog.Logger

	server *http.Server
}

func NewServer(cfg *config.Config, chat usecase.ChatUseCase, store repository.MessageStore, proj *render.Projection, logger *zerolog.Logger) *Server {
	s := &Server{
		chat:  chat,
		store: store,
		proj:  proj,
		auth: NewAuthManager(cfg.Web.AuthSecret, cfg.Web.SecureCookie, time.Duration(cfg.Web.CookieTTLMins)*time.Minute),
		log:  logger,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Web.Port),
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions", s.handleCreateSession)
			r.Put("/sessions/{id}/select", s.handleSelectSession)
			r.Delete("/sessions/{id}", s.handleDeleteSession)
			r.Get("/sessions/{id}/rendered", s.handleRendered)
			r.Get("/sessions/{id}/events", s.handleEvents)
			r.Post("/chat", s.handleSubmitTurn)
			r.Get("/models", s.handleListModels)
			r.Get("/hints", s.handleHints)
		})
	})
	return r
}

// requestLogger mints a trace id for the request and logs through the
// context-aware logger so downstream log lines share it.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
