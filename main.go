package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chess-duels/internal/chat"
	"github.com/mauv0809/chess-duels/internal/config"
	"github.com/mauv0809/chess-duels/internal/duels"
	server "github.com/mauv0809/chess-duels/internal/http"
	"github.com/mauv0809/chess-duels/internal/lichess"
	"github.com/mauv0809/chess-duels/internal/metrics"
	"github.com/mauv0809/chess-duels/internal/notifier"
	"github.com/mauv0809/chess-duels/internal/notifier/slack"
	"github.com/mauv0809/chess-duels/internal/pubsub"
	"github.com/mauv0809/chess-duels/internal/registry"
	"github.com/mauv0809/chess-duels/internal/scheduler"
	"github.com/mauv0809/chess-duels/internal/store"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	st, err := store.Open(cfg.DataPath)
	storeInitDuration := time.Since(startTime)
	log.Info("Store initialization time recorded", "duration_ms", storeInitDuration.Milliseconds(), "path", cfg.DataPath)
	if err != nil {
		log.Fatalf("Failed to open data store: %s", err)
	}
	defer func() {
		log.Info("Closing data store")
		st.Close()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	lichessClient := lichess.NewClient(cfg.Lichess.BaseURL, cfg.Lichess.Timeout, cfg.Lichess.MaxGames)

	var announcer notifier.Notifier = notifier.Nop{}
	if cfg.Slack.Token != "" && cfg.Slack.ChannelID != "" {
		announcer = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	} else {
		log.Info("Slack not configured, duel announcements disabled")
	}

	ps := pubsub.NewLocal()
	if cfg.ProjectID != "" {
		ps, err = pubsub.New(cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
	}
	defer ps.Close()

	syncer := duels.NewSyncer(st, lichessClient, metricsSvc, announcer, ps, duels.Options{
		MinInterval:      cfg.Sync.MinInterval,
		DefaultLookback:  cfg.Sync.DefaultLookback,
		FetchConcurrency: cfg.Sync.FetchConcurrency,
	})

	s := server.NewServer(
		registry.New(st, lichessClient),
		chat.New(st),
		syncer,
		announcer,
		metricsSvc,
		metricsHandler,
		cfg,
		ps,
	)

	var sched *scheduler.Scheduler
	if cfg.Sync.Interval > 0 {
		sched, err = scheduler.New(cfg.Sync.Interval, syncer)
		if err != nil {
			log.Fatalf("Failed to create sync scheduler: %s", err)
		}
		sched.Start()
	} else {
		log.Info("Periodic sync disabled")
	}

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Error("Scheduler shutdown failed", "error", err)
		}
	}
	log.Info("Server process shutting down")
}
