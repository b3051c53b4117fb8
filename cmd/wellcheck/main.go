package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MikeSquared-Agency/wellcheck/internal/alert"
	"github.com/MikeSquared-Agency/wellcheck/internal/api"
	"github.com/MikeSquared-Agency/wellcheck/internal/cache"
	"github.com/MikeSquared-Agency/wellcheck/internal/config"
	"github.com/MikeSquared-Agency/wellcheck/internal/hermes"
	"github.com/MikeSquared-Agency/wellcheck/internal/language"
	"github.com/MikeSquared-Agency/wellcheck/internal/processor"
	"github.com/MikeSquared-Agency/wellcheck/internal/risk"
	"github.com/MikeSquared-Agency/wellcheck/internal/store"
	"github.com/MikeSquared-Agency/wellcheck/internal/wearable"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("wellcheck starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Redis behavioral cache. Recomputes fall back to neutral behavioral
	// scores while it is unreachable.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, behavioral cache degraded", "addr", cfg.RedisAddr, "error", err)
	} else {
		slog.Info("redis connected", "addr", cfg.RedisAddr)
	}
	pingCancel()
	samples := cache.NewBehavioralCache(rdb)

	// Natural-language analysis
	if cfg.LanguageAPIKey == "" {
		slog.Warn("LANGUAGE_API_KEY not set, sentiment will read neutral and only keyword checks apply")
	}
	nl := language.NewClient(cfg.LanguageAPIKey, cfg.LanguageAPIURL, cfg.LanguageTimeout)
	analyzer := language.NewAnalyzer(nl, cfg.LanguageTimeout, slog.Default())
	classifier := risk.NewClassifier(risk.DefaultConfig())

	fitness := wearable.NewClient(cfg.FitnessAPIURL)

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Slack notifier (optional, alerts still go out on NATS without it)
	var notifier alert.Notifier
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notifier = alert.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack notifier ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, urgent flags only published on NATS")
	}

	sink := alert.NewSink(db, hermesClient, notifier, slog.Default())
	proc := processor.New(db, sink, analyzer, classifier, samples, fitness, slog.Default())

	subscriptions := map[string]hermes.Handler{
		hermes.SubjectCheckinCompleted: proc.HandleCheckinCompleted,
		hermes.SubjectJournalCreated:   proc.HandleJournalCreated,
		hermes.SubjectWearableSynced:   proc.HandleWearableSynced,
		hermes.SubjectPHQ9Submitted:    proc.HandlePHQ9Submitted,
	}
	subjects := make([]string, 0, len(subscriptions))
	for subject, handler := range subscriptions {
		if err := hermesClient.QueueSubscribe(subject, handler); err != nil {
			slog.Error("failed to subscribe", "subject", subject, "error", err)
			os.Exit(1)
		}
		subjects = append(subjects, subject)
	}

	// HTTP API
	if cfg.JWTSecret == "" {
		slog.Warn("WELLCHECK_JWT_SECRET not set, reviewer endpoints will reject all requests")
	}
	srv := api.NewServer(cfg.Port, db, hermesClient, sink, cfg.JWTSecret, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish(hermes.SubjectAgentRegistered, hermes.AgentRegistered{
		Service:   "wellcheck",
		Port:      cfg.Port,
		Subjects:  subjects,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("wellcheck ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	if err := hermesClient.Drain(); err != nil {
		slog.Warn("nats drain", "error", err)
	}
	cancel()
	slog.Info("wellcheck stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
