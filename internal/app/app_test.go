package app

import (
	"context"
	"testing"
	"time"

	"github.com/linkshelf/api/internal/config"
	"github.com/linkshelf/api/internal/telemetry"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 18080
	return cfg
}

func TestNew_WithCache(t *testing.T) {
	app, err := New(testConfig(), &telemetry.Telemetry{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Shutdown(context.Background())

	if app.DB == nil {
		t.Fatal("expected database to be opened when cache is enabled")
	}
	if app.RateLimiter == nil {
		t.Error("expected rate limiter when enabled")
	}
	if got := app.Resolver.Platforms(); len(got) != 3 {
		t.Errorf("platforms = %v, want all three", got)
	}
}

func TestNew_WithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Preview.Platforms = []string{"youtube"}

	app, err := New(cfg, &telemetry.Telemetry{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Shutdown(context.Background())

	if app.DB != nil {
		t.Error("expected no database when cache is disabled")
	}
	if app.RateLimiter != nil {
		t.Error("expected no rate limiter when disabled")
	}
	if got := app.Resolver.Platforms(); len(got) != 1 || got[0] != "youtube" {
		t.Errorf("platforms = %v, want [youtube]", got)
	}
}

func TestNew_TrimsPublicURL(t *testing.T) {
	cfg := testConfig()
	cfg.Server.PublicURL = "https://previews.example.com/"

	app, err := New(cfg, &telemetry.Telemetry{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Shutdown(context.Background())

	if app.Config.Server.PublicURL != "https://previews.example.com" {
		t.Errorf("public url = %q", app.Config.Server.PublicURL)
	}
}

func TestResolverOptions(t *testing.T) {
	cfg := config.Defaults().Preview
	cfg.UserAgent = "linkshelf-test"
	cfg.AllowPrivateNetworks = true

	opts := ResolverOptions(cfg)
	if opts.Timeout != cfg.Timeout || opts.MaxBodySize != cfg.MaxBodySize {
		t.Errorf("limits not carried over: %+v", opts)
	}
	if opts.UserAgent != "linkshelf-test" || !opts.AllowPrivateNetworks {
		t.Errorf("options not carried over: %+v", opts)
	}
}

func TestEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ticks := make(chan struct{}, 10)
	done := make(chan struct{})
	go func() {
		every(ctx, 5*time.Millisecond, func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})
		close(done)
	}()

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected at least one tick")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("every did not stop after cancel")
	}
}

func TestBatchWorkTime(t *testing.T) {
	cfg := config.Defaults()
	cfg.Batch.MaxURLs = 20
	cfg.Batch.Concurrency = 4
	cfg.Preview.Timeout = 8 * time.Second
	cfg.Preview.OEmbedTimeout = 3 * time.Second

	if got, want := batchWorkTime(cfg), 55*time.Second; got != want {
		t.Errorf("batchWorkTime = %v, want %v", got, want)
	}

	cfg.Batch.MaxURLs = 5
	cfg.Batch.Concurrency = 0
	if got, want := batchWorkTime(cfg), 55*time.Second; got != want {
		t.Errorf("batchWorkTime with zero concurrency = %v, want %v", got, want)
	}
}
