// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/James230kk/Abtkar/internal/config"
	"github.com/James230kk/Abtkar/internal/domain/ports/adapter"
	aiAdapters "github.com/James230kk/Abtkar/internal/infra/adapters/ai"
	"github.com/James230kk/Abtkar/internal/infra/logging"
	"github.com/James230kk/Abtkar/internal/infra/memstore"
	"github.com/James230kk/Abtkar/internal/infra/metrics"
	"github.com/James230kk/Abtkar/internal/infra/web"
	"github.com/James230kk/Abtkar/internal/render"
	"github.com/James230kk/Abtkar/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (canned AI replies, no keys needed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- AI adapter ----
	ai, err := buildAI(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapter")
	}
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)

	// ---- Store, use cases, projection ----
	store := memstore.New(logger)
	chatUC := usecase.NewChatUseCase(store, ai, cfg.AI.DefaultModel, cfg.Chat.HistoryWindow, logger)
	projection := render.New(store)
	defer projection.Close()

	// ---- HTTP ----
	server := web.NewServer(cfg, chatUC, store, projection, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

// buildAI wires the provider adapters declared in config: gemini and/or
// openai behind the multi-adapter, or the noop adapter in dev mode.
func buildAI(ctx context.Context, cfg *config.Config) (adapter.AIServiceAdapter, error) {
	if cfg.Runtime.Dev && cfg.AI.GeminiKey == "" && cfg.AI.OpenAIKey == "" {
		return aiAdapters.NewNoopAIAdapter(), nil
	}

	byProvider := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.GeminiKey != "" {
		g, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL,
			cfg.AI.DefaultModel, cfg.AI.SystemInstruction, cfg.AI.MaxOutputTokens, cfg.AI.Grounding)
		if err != nil {
			return nil, err
		}
		byProvider["gemini"] = g
	}
	if cfg.AI.OpenAIKey != "" {
		o, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL,
			cfg.AI.DefaultModel, cfg.AI.SystemInstruction, cfg.AI.MaxOutputTokens)
		if err != nil {
			return nil, err
		}
		byProvider["openai"] = o
	}
	if len(byProvider) == 1 {
		for _, a := range byProvider {
			return a, nil
		}
	}
	return aiAdapters.NewMultiAIAdapter(cfg.AI.DefaultProvider, byProvider, cfg.AI.ModelProviders), nil
}
