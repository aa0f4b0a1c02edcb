// cmd/agent-manager/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"returns-insights/internal/agents/analytics"
	"returns-insights/internal/agents/classifier"
	"returns-insights/internal/agents/router"
	"returns-insights/internal/agents/slotfill"
	"returns-insights/internal/common/config"
	"returns-insights/internal/common/database"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/common/observability"
	"returns-insights/internal/notify"
	"returns-insights/internal/report"
	"returns-insights/internal/server"
	"returns-insights/internal/session"
	"returns-insights/internal/storage"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting agent manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("agent-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	store := storage.NewPostgresStore(pg.GetDB(), log)
	if err := store.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}

	seedCorpus(ctx, store, cfg, zapLog, log)

	// --- Session store: memory or redis ---
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		var rd *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rd, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rd.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rd.Close()
		sessions = session.NewRedisStore(rd.GetClient(), config.GetDuration(cfg.Session.TTL))
		zapLog.Info("Redis session store ready")
	default:
		sessions = session.NewMemoryStore()
		zapLog.Info("In-memory session store ready")
	}

	// --- Agents ---
	cl := classifier.New(cfg.Agents.Classifier)
	machine := slotfill.New(sessions, store, cfg.Agents.Slotfill, log)
	renderer := report.NewRenderer(cfg.Reports.OutputDir, config.GetDuration(cfg.Reports.MaxAge), log)
	insights := analytics.New(store, renderer, cfg.Agents.Analytics, cfg.Agents.Retrieval, log)
	rt := router.New(cl, machine, insights, sessions, obs, cfg.Session.HistoryLimit, log)

	notifier := buildNotifier(ctx, cfg, zapLog, log)

	// --- Report cleanup loop ---
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				renderer.Sweep()
			}
		}
	}()

	// --- HTTP server ---
	srv := server.New(rt, sessions, renderer, notifier, cfg.Server, log)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		zapLog.Fatal("server failed", zap.Error(err))
	case sig := <-stop:
		zapLog.Info("Shutting down...", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		zapLog.Error("shutdown incomplete", zap.Error(err))
	}
	zapLog.Info("Agent manager stopped")
}

// seedCorpus loads the historical returns CSV once into an empty table.
func seedCorpus(ctx context.Context, store *storage.PostgresStore, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) {
	path := cfg.Database.Postgres.SeedCSV
	if path == "" {
		return
	}

	count, err := store.Count(ctx)
	if err != nil {
		zapLog.Warn("corpus count failed, skipping seed", zap.Error(err))
		return
	}
	if count > 0 {
		zapLog.Info("Corpus already seeded", zap.Int("records", count))
		return
	}

	n, err := storage.LoadCSV(ctx, store, path, log)
	if err != nil {
		zapLog.Warn("corpus seed failed", zap.Error(err), zap.String("path", path))
		return
	}
	zapLog.Info("Corpus seeded from CSV", zap.Int("records", n), zap.String("path", path))
}

// buildNotifier wires SES/SNS confirmation delivery when any channel is
// enabled. A wiring failure disables notifications but never blocks
// startup.
func buildNotifier(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) *notify.Notifier {
	if !cfg.Notifications.Email.Enabled && !cfg.Notifications.SMS.Enabled {
		return nil
	}

	var email notify.EmailSender
	var sms notify.SMSSender
	var err error

	if cfg.Notifications.Email.Enabled {
		email, err = notify.NewSESSender(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("ses client init failed, email confirmations disabled", zap.Error(err))
		}
	}
	if cfg.Notifications.SMS.Enabled {
		sms, err = notify.NewSNSSender(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("sns client init failed, sms confirmations disabled", zap.Error(err))
		}
	}
	if email == nil && sms == nil {
		return nil
	}

	return notify.New(email, sms, cfg.Notifications, log)
}
