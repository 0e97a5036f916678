package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coachkit/automation/internal/action"
	"github.com/coachkit/automation/internal/api"
	"github.com/coachkit/automation/internal/collab"
	"github.com/coachkit/automation/internal/config"
	"github.com/coachkit/automation/internal/engine"
	"github.com/coachkit/automation/internal/rule"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/rules.yaml", "Path to rules YAML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	rules, err := rule.FromConfig(cfg.Rules)
	if err != nil {
		slog.Error("failed to build rules", "err", err)
		os.Exit(1)
	}
	registry := rule.NewRegistry()
	registry.Reseed(rules)
	slog.Info("rules seeded", "count", len(rules))

	// ── Collaborators ─────────────────────────────────────────────────────────
	// Dev wiring; a production deployment swaps these for its own
	// implementations behind the same interfaces.
	store := collab.NewMemoryStore()
	advisor := &collab.StubAdvisor{}
	notifier := &collab.LogNotifier{}

	exec := &action.Executor{
		Advisor:  advisor,
		Store:    store,
		Notifier: notifier,
		Timeout:  time.Duration(cfg.Engine.ActionTimeoutMs) * time.Millisecond,
	}
	seq := engine.NewSequencer(advisor, store, engine.DefaultDelays(),
		time.Duration(cfg.Engine.ActionTimeoutMs)*time.Millisecond)

	svc := engine.New(registry, exec, store, seq, engine.Config{
		SweepWorkers: cfg.Engine.SweepWorkers,
		SubjectKind:  cfg.Engine.SubjectKind,
	})

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// The loader only installs validated configs, so only rule building can
	// still reject a reload here.
	loader.OnChange(func(newCfg *config.File) {
		newRules, err := rule.FromConfig(newCfg.Rules)
		if err != nil {
			slog.Warn("hot-reload skipped: rule build failed", "err", err)
			return
		}
		svc.Reseed(newRules)
		slog.Info("rules hot-reloaded", "count", len(newRules))
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Scheduled sweep ───────────────────────────────────────────────────────
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Engine.SweepCron, func() {
		svc.RunScheduledSweep(ctx, time.Now())
	}); err != nil {
		slog.Error("invalid sweep_cron", "spec", cfg.Engine.SweepCron, "err", err)
		os.Exit(1)
	}
	sweeper.Start()
	slog.Info("sweep scheduled", "cron", cfg.Engine.SweepCron)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(svc, loader, store)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	<-sweeper.Stop().Done()
	cancel()
	slog.Info("goodbye")
}
