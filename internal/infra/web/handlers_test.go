//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/James230kk/Abtkar/internal/config"
	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
	"github.com/James230kk/Abtkar/internal/infra/memstore"
	"github.com/James230kk/Abtkar/internal/render"
	"github.com/James230kk/Abtkar/internal/usecase"
)

// echoAI replies with a single fixed fragment.
type echoAI struct{ reply string }

func (e *echoAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (e *echoAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return len(messages), nil
}

func (e *echoAI) ChatStream(ctx context.Context, model string, messages []adapter.Message, onFragment adapter.OnFragment) (adapter.Usage, error) {
	if err := onFragment(adapter.Fragment{Text: e.reply}); err != nil {
		return adapter.Usage{}, err
	}
	return adapter.Usage{}, nil
}

type testServer struct {
	handler http.Handler
	chat    usecase.ChatUseCase
	store   *memstore.Store
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	store := memstore.New(&logger)
	chat := usecase.NewChatUseCase(store, &echoAI{reply: "مرحباً"}, "fake-model", 32, &logger)
	proj := render.New(store)
	t.Cleanup(proj.Close)

	cfg := &config.Config{}
	cfg.Web.Port = 0
	cfg.Web.AuthSecret = "test-secret"
	cfg.Web.CookieTTLMins = 60
	srv := NewServer(cfg, chat, store, proj, &logger)

	ts := &testServer{handler: srv.routes(), chat: chat, store: store}
	ts.login(t, "someone@example.com")
	return ts
}

func (ts *testServer) login(t *testing.T, email string) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"`+email+`"}`))
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "abtkar_session" {
			ts.cookie = c
			return
		}
	}
	t.Fatal("login did not set the session cookie")
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t)

	t.Run("unauthenticated requests are rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status %d, want 401", rec.Code)
		}
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"not-an-email"}`))
		ts.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})

	t.Run("cookie unlocks the authed surface", func(t *testing.T) {
		if rec := ts.do(t, http.MethodGet, "/api/v1/sessions", ""); rec.Code != http.StatusOK {
			t.Errorf("status %d, want 200", rec.Code)
		}
	})
}

func TestSessionEndpoints(t *testing.T) {
	ts := newTestServer(t)

	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	t.Run("create", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/sessions", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("status %d, want 201", rec.Code)
		}
		decodeBody(t, rec, &created)
		if created.ID == "" || created.Title == "" {
			t.Errorf("incomplete session payload: %+v", created)
		}
	})

	t.Run("list includes the new session as current", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/sessions", "")
		var body struct {
			Sessions         []sessionSummary `json:"sessions"`
			CurrentSessionID string           `json:"currentSessionId"`
		}
		decodeBody(t, rec, &body)
		if len(body.Sessions) != 1 || body.Sessions[0].ID != created.ID {
			t.Fatalf("unexpected sessions: %+v", body.Sessions)
		}
		if body.CurrentSessionID != created.ID {
			t.Errorf("current %q, want %q", body.CurrentSessionID, created.ID)
		}
	})

	t.Run("select echoes the selection", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, "/api/v1/sessions/"+created.ID+"/select", "")
		var body map[string]string
		decodeBody(t, rec, &body)
		if body["currentSessionId"] != created.ID {
			t.Errorf("current %q, want %q", body["currentSessionId"], created.ID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rec := ts.do(t, http.MethodDelete, "/api/v1/sessions/"+created.ID, ""); rec.Code != http.StatusNoContent {
			t.Errorf("status %d, want 204", rec.Code)
		}
		if ts.store.Session(created.ID) != nil {
			t.Error("session survived deletion")
		}
	})
}

func TestSubmitTurnEndpoint(t *testing.T) {
	ts := newTestServer(t)

	t.Run("accepted submission returns the message ids", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/chat", `{"text":"سؤال"}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status %d, want 202: %s", rec.Code, rec.Body.String())
		}
		var res usecase.SubmitResult
		decodeBody(t, rec, &res)
		if res.SessionID == "" || res.UserMessageID == "" || res.ModelMessageID == "" {
			t.Errorf("incomplete result: %+v", res)
		}
	})

	t.Run("empty text maps to 400", func(t *testing.T) {
		if rec := ts.do(t, http.MethodPost, "/api/v1/chat", `{"text":"   "}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})

	t.Run("unknown session maps to 404", func(t *testing.T) {
		if rec := ts.do(t, http.MethodPost, "/api/v1/chat", `{"sessionId":"missing","text":"hi"}`); rec.Code != http.StatusNotFound {
			t.Errorf("status %d, want 404", rec.Code)
		}
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		if rec := ts.do(t, http.MethodPost, "/api/v1/chat", `{{`); rec.Code != http.StatusBadRequest {
			t.Errorf("status %d, want 400", rec.Code)
		}
	})
}

func TestRenderedEndpoint(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing session maps to 404", func(t *testing.T) {
		if rec := ts.do(t, http.MethodGet, "/api/v1/sessions/missing/rendered", ""); rec.Code != http.StatusNotFound {
			t.Errorf("status %d, want 404", rec.Code)
		}
	})

	t.Run("messages include the transformed document", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/chat", `{"text":"اشرح لي"}`)
		var res usecase.SubmitResult
		decodeBody(t, rec, &res)
		waitForStream(t, ts, res.SessionID)

		rec = ts.do(t, http.MethodGet, "/api/v1/sessions/"+res.SessionID+"/rendered", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rec.Code)
		}
		var body struct {
			Messages []render.RenderedMessage `json:"messages"`
		}
		decodeBody(t, rec, &body)
		if len(body.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(body.Messages))
		}
		if body.Messages[1].Content != "مرحباً" {
			t.Errorf("model content %q", body.Messages[1].Content)
		}
		if len(body.Messages[0].Document) == 0 {
			t.Error("user message missing its document")
		}
	})
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)

	t.Run("models", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/models", "")
		var body struct {
			Models []string `json:"models"`
		}
		decodeBody(t, rec, &body)
		if len(body.Models) != 1 || body.Models[0] != "fake-model" {
			t.Errorf("unexpected models: %v", body.Models)
		}
	})

	t.Run("hints", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/hints", "")
		var body struct {
			Hints []string `json:"hints"`
		}
		decodeBody(t, rec, &body)
		if len(body.Hints) != len(welcomeHints) {
			t.Errorf("expected %d hints, got %d", len(welcomeHints), len(body.Hints))
		}
	})
}

// waitForStream polls until no stream is active on the session.
func waitForStream(t *testing.T, ts *testServer, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ts.chat.ActiveStream(sessionID) == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("stream did not finish in time")
}
