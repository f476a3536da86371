package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inamate/inamate/render-go/internal/auth"
	"github.com/inamate/inamate/render-go/internal/config"
	"github.com/inamate/inamate/render-go/internal/engine"
	"github.com/inamate/inamate/render-go/internal/server"
	"github.com/inamate/inamate/render-go/internal/texture"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	engine.SetLogger(logger.With("component", "engine"))
	engine.Debug = cfg.Debug

	if cfg.ViewerKeyHash == "" {
		slog.Warn("VIEWER_KEY_HASH not set, tokens are issued to anyone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := texture.NewStore(cfg.TextureDir, cfg.TextureWorkers)
	defer store.Close()

	eng := engine.NewEngine(cfg.EngineOptions(), store)
	player := server.NewPlayer(eng, store, cfg.FPS)
	if err := player.Load(cfg.SceneFile); err != nil {
		slog.Error("load scene", "error", err, "file", cfg.SceneFile)
		os.Exit(1)
	}

	go player.Hub().Run(ctx)
	go player.Run(ctx)

	authService := auth.NewService(cfg.ViewerKeyHash, cfg.JWTSecret)
	router := server.NewRouter(player, server.RouterConfig{
		Auth:          authService,
		Origins:       cfg.Origins(),
		OriginPattern: cfg.OriginHosts(),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", addr, "fps", cfg.FPS, "fused", cfg.FusedUpdate)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		slog.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped", "frames", player.Stats().Frame.Frame)
}
