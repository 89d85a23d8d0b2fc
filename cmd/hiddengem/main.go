package main

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/baggage"

	"github.com/hiddengem/hiddengem/config"
	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/tracing"
)

var cfg *config.Config

func main() {
	ctx := context.Background()

	// Set global baggage
	m, _ := baggage.NewMember("app.version", "1.0.0")
	b, _ := baggage.New(m)
	ctx = baggage.ContextWithBaggage(ctx, b)

	var err error
	cfg, err = config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	logging.Setup(logging.Config{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "",
		Endpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	if err != nil {
		logging.Error("failed to setup tracing", "error", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logging.Error("failed to shutdown tracing", "error", err)
		}
	}()

	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "serve":
		handleServeCommand(ctx)
	case "warm":
		handleWarmCommand(ctx, args[1:])
	case "descriptions":
		if len(args) < 2 {
			fmt.Println("Usage: hiddengem descriptions <command>")
			fmt.Println("Commands: clear")
			os.Exit(1)
		}
		handleDescriptionsCommand(ctx, args[1:])
	case "users":
		if len(args) < 2 {
			fmt.Println("Usage: hiddengem users <command>")
			fmt.Println("Commands: add, admin")
			os.Exit(1)
		}
		handleUsersCommand(ctx, args[1:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Hidden Gem - retro games catalog with cached media")
	fmt.Println()
	fmt.Println("Usage: hiddengem <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                      Run the web server")
	fmt.Println("  warm [--console <name>]    Pre-fetch media for the whole catalog")
	fmt.Println("  descriptions clear         Drop provider descriptions so they re-fetch")
	fmt.Println("  users add <email>          Create a user (prompts for password)")
	fmt.Println("  users admin <email>        Grant admin to a user")
	fmt.Println("  help                       Show this help")
}

func fatal(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
