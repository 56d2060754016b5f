package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hostboard/hostboard/internal/alerts"
	"github.com/hostboard/hostboard/internal/api"
	"github.com/hostboard/hostboard/internal/config"
	"github.com/hostboard/hostboard/internal/store"
	"github.com/hostboard/hostboard/internal/sysinfo"
	"github.com/hostboard/hostboard/internal/ws"
)

// sampleInterval is the dashboard refresh cadence for the WebSocket stream.
const sampleInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the dashboard UI static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("hostboard starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"provider", cfg.Provider.Type,
		"history_ttl", cfg.Server.History.TTL,
		"alerts_enabled", cfg.Alerts.Enabled,
		"alert_rules", len(cfg.Alerts.Rules),
		"notifier", cfg.Alerts.Notifier.Type,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider, err := sysinfo.New(cfg.Provider)
	if err != nil {
		slog.Error("failed to create metrics provider", "err", err)
		os.Exit(1)
	}

	// Sample history with background TTL eviction.
	st := store.New(cfg.Server.History.TTL)
	go st.Run(ctx)

	// Alert engine with background notification delivery.
	notifier, err := alerts.NewNotifier(cfg.Alerts.Notifier)
	if err != nil {
		slog.Error("failed to create notifier", "err", err)
		os.Exit(1)
	}
	engine := alerts.NewEngine(cfg.Alerts, notifier)
	go engine.Run(ctx)

	// WebSocket hub; owns the periodic sampling loop.
	hub := ws.New(provider, st, engine, sampleInterval)
	go hub.Run(ctx)

	// Combined HTTP server: REST API + WebSocket hub on HTTPPort.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(provider, st, engine))
	httpMux.Handle("/ws/stats", hub)

	// Optional: serve the pre-built dashboard UI from a local directory.
	// Usage:  ./bin/hostboard -config config.yaml -ui-dir ui/dist
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("hostboard shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
