package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"agency_bot/internal/assistant"
	"agency_bot/internal/bot"
	"agency_bot/internal/config"
	"agency_bot/internal/fetcher"
	"agency_bot/internal/interpret"
	"agency_bot/internal/roster"
	"agency_bot/internal/scheduler"
	"agency_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	store, err := openStore(cfg.DatabasePath, log)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	influencers, err := roster.Load(cfg.InfluencerRoster)
	if err != nil {
		log.Error("load influencer roster", "path", cfg.InfluencerRoster, "error", err)
		os.Exit(1)
	}

	vocab := interpret.DefaultVocabulary()
	catalog := fetcher.NewCatalog(
		fetcher.New(http.DefaultClient),
		cfg.MediaFeeds,
		cfg.SocialFeeds,
		influencers,
		interpret.NewSentimentScorer(vocab),
		log,
	)
	svc := assistant.New(store, catalog, vocab, cfg.MediaFallback, log)

	b, err := bot.New(cfg.TelegramBotToken, svc, cfg, log)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot",
		"media_feeds", len(cfg.MediaFeeds),
		"social_feeds", len(cfg.SocialFeeds),
		"influencers", len(influencers),
	)

	if len(cfg.SocialFeeds) > 0 {
		sched := scheduler.New(store, catalog, b, log)
		sched.SetTickInterval(cfg.TrackInterval)
		go sched.Run(ctx)
	} else {
		log.Warn("no social feeds configured, saved trackers will not be checked")
	}

	b.Run(ctx)

	log.Info("bot stopped")
}

// openStore keeps saved filters in memory unless a database path is set.
func openStore(path string, log *slog.Logger) (storage.Storage, error) {
	if path == "" {
		log.Info("DATABASE_PATH not set, saved filters are kept in memory")
		return storage.NewMemory(), nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	return storage.NewSQLite(path)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
