package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/llm/anthropic"
	"github.com/heartmarshall/notes-assistant-backend/internal/adapter/postgres"
	"github.com/heartmarshall/notes-assistant-backend/internal/auth"
	"github.com/heartmarshall/notes-assistant-backend/internal/config"
	"github.com/heartmarshall/notes-assistant-backend/internal/metrics"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/chat"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/intent"
	"github.com/heartmarshall/notes-assistant-backend/internal/service/retrieval"
	"github.com/heartmarshall/notes-assistant-backend/internal/transport/middleware"
	"github.com/heartmarshall/notes-assistant-backend/internal/transport/rest"
)

func bootstrap() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, NewLogger(cfg.Log), nil
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func Run(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	if cfg.Vector.Backend == config.VectorBackendMemory {
		// The memory index starts empty on every boot.
		if _, err := runReindex(ctx, d.notes, d.sales, "", defaultReindexWorkers, logger); err != nil {
			return fmt.Errorf("warm memory index: %w", err)
		}
	}

	model := anthropic.New(cfg.LLM, logger)
	retriever := retrieval.NewRetriever(logger, d.index, d.noteRepo, d.salesRepo, cfg.Chat.TopK)
	loc, err := time.LoadLocation(cfg.Chat.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("default timezone: %w", err)
	}
	chatSvc := chat.NewService(logger, model, intent.NewClassifier(logger, model), retriever, d.embedder, d.notes, chat.Config{
		MaxSteps:         cfg.Chat.MaxSteps,
		ClassifierWindow: cfg.Chat.ClassifierWindow,
		TopK:             cfg.Chat.TopK,
		DefaultTimezone:  loc,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	var extra []rest.Component
	if d.rdb != nil {
		extra = append(extra, rest.Component{Name: "redis", Check: rest.PingFunc(d.pingRedis)})
	}

	routes := rest.Routes{
		Health:    rest.NewHealthHandler(d.pool, BuildVersion(), extra...),
		Notes:     rest.NewNoteHandler(d.notes, logger),
		Sales:     rest.NewSalesHandler(d.sales, logger),
		Chat:      rest.NewChatHandler(chatSvc, logger),
		ChatLimit: limiter.Limit(cfg.RateLimit.ChatPerMinute),
	}
	if cfg.Metrics.Enabled {
		routes.Metrics = metrics.Handler()
		routes.MetricsPath = cfg.Metrics.Path
	}

	jwtMgr := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	// Metrics sits innermost so it sees the pattern the mux matched.
	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(jwtMgr),
		middleware.Timezone(),
		middleware.Metrics(),
	)(rest.NewRouter(routes))

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Migrate applies pending database migrations.
func Migrate(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	n, err := postgres.Migrate(ctx, cfg.Database.DSN, logger)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", slog.Int("applied", n))
	return nil
}

// IssueToken mints a bearer token for userID with the configured secret.
// It exists for local development against a running server.
func IssueToken(userID string, ttl time.Duration) (string, error) {
	cfg, _, err := bootstrap()
	if err != nil {
		return "", err
	}
	return auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience).
		GenerateAccessToken(userID, ttl)
}
