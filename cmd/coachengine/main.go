package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/coachengine/internal/cache"
	"github.com/claude/coachengine/internal/coaching"
	"github.com/claude/coachengine/internal/config"
	coachmcp "github.com/claude/coachengine/internal/mcp"
	"github.com/claude/coachengine/internal/server"
	"github.com/claude/coachengine/internal/storage"
	"github.com/claude/coachengine/internal/sweep"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	sweepOnce := flag.Bool("sweep-once", false, "run one workload sweep and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("CoachEngine starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	// Result cache is optional; the service runs without it.
	var rc coaching.ResultCache
	var pruner sweep.Pruner
	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			log.Warn("result cache disabled", "path", cfg.Cache.Path, "error", err)
		} else {
			defer c.Close()
			rc, pruner = c, c
			log.Info("result cache opened", "path", cfg.Cache.Path)
		}
	}

	svc := coaching.NewService(db, rc, cfg.Engine.DedupWindow(), log)
	sweeper := sweep.New(svc, pruner, log)
	sweeper.SetJournal(db)

	if *sweepOnce {
		sum := sweeper.RunOnce(ctx)
		if sum.Failed > 0 {
			os.Exit(1)
		}
		return
	}

	if cfg.Sweep.Enabled {
		if err := sweeper.Start(cfg.Sweep.Spec); err != nil {
			log.Error("failed to schedule sweep", "error", err)
			os.Exit(1)
		}
		defer sweeper.Stop()
	}

	srv := server.New(svc, cfg.Auth.APIKey, log)
	srv.SetSweepRuns(db)

	mcpSrv := coachmcp.New(svc, Version, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return coachmcp.WithAthleteID(ctx, r.Header.Get("X-Athlete-ID"))
		}),
	))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, closeListener, err := listen(cfg, log)
	if err != nil {
		log.Error("listener setup failed", "error", err)
		os.Exit(1)
	}
	defer closeListener()

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpSrv.Serve(listener) }()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
		return
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// listen returns the tailnet listener when tailscale is enabled and a plain
// TCP listener otherwise. The returned func releases the tsnet node.
func listen(cfg *config.Config, log *slog.Logger) (net.Listener, func(), error) {
	if !cfg.Tailscale.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("listening on %s: %w", addr, err)
		}
		log.Info("serving", "addr", addr, "tailscale", false)
		return ln, func() {}, nil
	}

	node := &tsnet.Server{Hostname: cfg.Tailscale.Hostname, Dir: cfg.Tailscale.StateDir}
	if err := node.Start(); err != nil {
		return nil, nil, fmt.Errorf("starting tsnet: %w", err)
	}
	ln, err := node.Listen("tcp", ":80")
	if err != nil {
		node.Close()
		return nil, nil, fmt.Errorf("tsnet listen: %w", err)
	}
	log.Info("serving", "hostname", cfg.Tailscale.Hostname, "tailscale", true)
	return ln, func() { node.Close() }, nil
}
