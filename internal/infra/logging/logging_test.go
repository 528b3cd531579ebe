//go:build !integration

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	t.Run("context ids are attached as fields", func(t *testing.T) {
		buf.Reset()
		ctx := WithTraceID(context.Background(), "tr-1")
		ctx = WithUserID(ctx, "someone@example.com")
		ctx = WithSessID(ctx, "sess-1")

		With(ctx, &base).Info().Msg("hello")

		out := buf.String()
		for _, want := range []string{`"trace_id":"tr-1"`, `"user_id":"someone@example.com"`, `"session_id":"sess-1"`} {
			if !strings.Contains(out, want) {
				t.Errorf("missing %s in %s", want, out)
			}
		}
	})

	t.Run("empty context adds nothing", func(t *testing.T) {
		buf.Reset()
		With(context.Background(), &base).Info().Msg("plain")
		out := buf.String()
		if strings.Contains(out, "trace_id") || strings.Contains(out, "session_id") {
			t.Errorf("unexpected fields in %s", out)
		}
	})
}

func TestTraceDuration(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	TraceDuration(&logger, "Store.Op")()

	out := buf.String()
	if !strings.Contains(out, `"method":"Store.Op"`) {
		t.Fatalf("missing method field in %s", out)
	}
	if !strings.Contains(out, `"message":"start"`) || !strings.Contains(out, `"message":"finish"`) {
		t.Errorf("expected start and finish lines, got %s", out)
	}
	if !strings.Contains(out, "duration") {
		t.Errorf("finish line missing duration: %s", out)
	}
}
