package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/media"
)

// handleWarmCommand walks the whole catalog and resolves each game, so the
// first user to browse never waits on a provider. Rate limits make this a
// long-running job; it is resumable because satisfied games are cache hits.
func handleWarmCommand(ctx context.Context, args []string) {
	console := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--console":
			if i+1 >= len(args) {
				fatal("--console requires a value")
			}
			i++
			console = args[i]
		default:
			fatal("Unknown argument: %s", args[i])
		}
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		fatal("Failed to start: %v", err)
	}

	games := eng.catalog.Games()
	if console != "" {
		games = eng.catalog.ByConsole(console)
		if len(games) == 0 {
			fatal("No games for console: %s", console)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := progressbar.Default(int64(len(games)), "Warming media cache")

	start := time.Now()
	var full, partial, failed int
	for i, game := range games {
		if ctx.Err() != nil {
			fmt.Println("\nInterrupted.")
			break
		}

		key := media.NewGameKey(game.Title, game.Console)
		record, err := eng.resolver.Resolve(ctx, key, eng.policy, false)
		switch {
		case err != nil:
			failed++
			logging.Error("warm failed", "game", key.String(), "error", err)
		case record.ImageCount() >= eng.policy.Covers+eng.policy.Screenshots && record.Description != "":
			full++
		default:
			partial++
		}
		_ = bar.Add(1)

		if (i+1)%100 == 0 {
			logging.Info("warm progress",
				"done", i+1,
				"total", len(games),
				"full", full,
				"partial", partial,
				"failed", failed)
		}
	}
	_ = bar.Finish()

	fmt.Printf("\nWarmed %d games in %s: %d complete, %d partial, %d failed\n",
		full+partial+failed, time.Since(start).Round(time.Second), full, partial, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
