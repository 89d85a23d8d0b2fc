package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hiddengem/hiddengem/db"
	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/media"
	"github.com/hiddengem/hiddengem/web"
)

func handleServeCommand(ctx context.Context) {
	eng, err := buildEngine(cfg)
	if err != nil {
		fatal("Failed to start: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fatal("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	watcher, err := media.NewWatcher(eng.store, eng.inspector)
	if err != nil {
		logging.Warn("media watcher disabled", "error", err)
	}

	server := web.NewServer(eng.catalog, eng.resolver, eng.store, database, eng.policy)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watcher != nil {
		go watcher.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("server listening",
		"addr", cfg.Server.Addr,
		"games", eng.catalog.Len(),
		"media_root", cfg.MediaRoot)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("Server error: %v", err)
	}
	logging.Info("server stopped")
}
