package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linkshelf/api/internal/app"
	"github.com/linkshelf/api/internal/config"
	"github.com/linkshelf/api/internal/linkpreview"
	"github.com/linkshelf/api/internal/logging"
	"github.com/linkshelf/api/internal/telemetry"
	"github.com/linkshelf/api/internal/version"
)

func main() {
	// Check for subcommands before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "preview":
			os.Exit(runPreview(os.Args[2:]))
		case "version":
			fmt.Println(version.Version)
			return
		case "serve":
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	// Setup CLI flags
	flags := config.SetupFlags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		slog.Error("error parsing flags", "error", err)
		os.Exit(1)
	}

	// Get config path from flags
	configPath, _ := flags.GetString("config")

	// Load configuration
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		slog.Error("error loading config", "error", err)
		os.Exit(1)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup telemetry, then structured logging bridged into it
	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version.Version)
	if err != nil {
		slog.Error("error setting up telemetry", "error", err)
		os.Exit(1)
	}
	if h := tel.LogHandler(); h != nil {
		logging.Setup(cfg.Log, h)
	} else {
		logging.Setup(cfg.Log)
	}

	// Create application
	application, err := app.New(cfg, tel)
	if err != nil {
		slog.Error("error creating application", "error", err)
		_ = tel.Shutdown(context.Background())
		os.Exit(1)
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("received shutdown signal")
		cancel()

		// Give server time to shutdown gracefully
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
	}()

	// Start application
	if err := application.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// runPreview resolves the URLs given on the command line without the cache
// and prints one JSON preview per line. It exits non-zero if any URL is
// invalid.
func runPreview(args []string) int {
	// Parse flags (supports --config, --preview.timeout, etc.)
	flags := config.SetupFlags()
	if err := flags.Parse(args); err != nil {
		slog.Error("error parsing flags", "error", err)
		return 2
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: linkshelf preview [flags] <url>...")
		return 2
	}

	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		slog.Error("error loading config", "error", err)
		return 1
	}

	logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver := linkpreview.NewResolver(app.ResolverOptions(cfg.Preview))
	enc := json.NewEncoder(os.Stdout)

	code := 0
	for _, raw := range flags.Args() {
		res, err := resolver.Resolve(ctx, raw)
		if err != nil {
			slog.Error("invalid url", "url", raw, "error", err)
			code = 1
			continue
		}
		if err := enc.Encode(res); err != nil {
			slog.Error("writing preview", "error", err)
			return 1
		}
	}
	return code
}
