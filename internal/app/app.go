package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/linkshelf/api/internal/config"
	"github.com/linkshelf/api/internal/database"
	"github.com/linkshelf/api/internal/handler"
	"github.com/linkshelf/api/internal/linkpreview"
	"github.com/linkshelf/api/internal/ratelimit"
	"github.com/linkshelf/api/internal/server"
	"github.com/linkshelf/api/internal/telemetry"
)

type App struct {
	Config      *config.Config
	DB          *database.DB // nil when the cache is disabled
	Server      *server.Server
	Resolver    *linkpreview.Resolver
	Previews    *linkpreview.Service
	RateLimiter *ratelimit.Limiter
	Telemetry   *telemetry.Telemetry
}

// ResolverOptions maps preview config onto resolver options.
func ResolverOptions(cfg config.PreviewConfig) linkpreview.Options {
	return linkpreview.Options{
		Timeout:              cfg.Timeout,
		OEmbedTimeout:        cfg.OEmbedTimeout,
		MaxBodySize:          cfg.MaxBodySize,
		MaxRedirects:         cfg.MaxRedirects,
		UserAgent:            cfg.UserAgent,
		AllowPrivateNetworks: cfg.AllowPrivateNetworks,
		Platforms:            cfg.Platforms,
	}
}

func New(cfg *config.Config, tel *telemetry.Telemetry) (*App, error) {
	// Open the cache database
	var (
		db   *database.DB
		repo *linkpreview.Repository
	)
	if cfg.Cache.Enabled {
		var err error
		db, err = database.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}

		// Run migrations
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		repo = linkpreview.NewRepository(db.DB)
	}

	// Initialize resolver and cache-backed service
	resolver := linkpreview.NewResolver(ResolverOptions(cfg.Preview))
	previews := linkpreview.NewService(resolver, repo, linkpreview.ServiceOptions{
		TTL:      cfg.Cache.TTL,
		ErrorTTL: cfg.Cache.ErrorTTL,
	})

	// Normalize publicURL to avoid double slashes in logged URLs
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")

	// Initialize main handler implementing StrictServerInterface
	h := handler.New(handler.Dependencies{
		Previews:     previews,
		Platforms:    resolver.Platforms(),
		CacheEnabled: cfg.Cache.Enabled,
		Batch: handler.BatchOptions{
			MaxURLs:       cfg.Batch.MaxURLs,
			Concurrency:   cfg.Batch.Concurrency,
			RatePerSecond: cfg.Batch.RatePerSecond,
		},
	})

	// Build rate limiter (nil if disabled)
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		rules := []ratelimit.Rule{
			{Method: "GET", Path: "/api/preview", Limit: cfg.RateLimit.Preview.Limit, Window: cfg.RateLimit.Preview.Window},
			{Method: "POST", Path: "/api/previews", Limit: cfg.RateLimit.Batch.Limit, Window: cfg.RateLimit.Batch.Window},
		}
		limiter = ratelimit.NewLimiter(rules)
	}

	router := server.NewRouter(h, limiter, cfg.Server.AllowedOrigins)

	tlsOpts := server.TLSOptions{
		Mode:     cfg.Server.TLS.Mode,
		CertFile: cfg.Server.TLS.CertFile,
		KeyFile:  cfg.Server.TLS.KeyFile,
		Domain:   cfg.Server.TLS.Auto.Domain,
		Email:    cfg.Server.TLS.Auto.Email,
		CacheDir: cfg.Server.TLS.Auto.CacheDir,
	}
	if tlsOpts.Mode == server.TLSAuto {
		if err := os.MkdirAll(tlsOpts.CacheDir, 0700); err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("creating TLS cache directory: %w", err)
		}
	}

	srv := server.New(router, server.Options{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		TLS:      tlsOpts,
		WorkTime: batchWorkTime(cfg),
	})

	return &App{
		Config:      cfg,
		DB:          db,
		Server:      srv,
		Resolver:    resolver,
		Previews:    previews,
		RateLimiter: limiter,
		Telemetry:   tel,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	// Start rate limiter cleanup
	if a.RateLimiter != nil {
		go every(ctx, 10*time.Minute, func() {
			if n := a.RateLimiter.Cleanup(); n > 0 {
				slog.Debug("dropped expired rate limit windows", "count", n)
			}
		})
	}

	// Start expired preview cleanup
	if a.DB != nil {
		go every(ctx, a.Config.Cache.CleanupInterval, func() {
			if err := a.Previews.CleanExpired(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("cleaning expired previews", "error", err)
			}
		})
	}

	slog.Info("starting linkshelf",
		"addr", a.Server.Addr(),
		"public_url", a.Config.Server.PublicURL,
		"cache", a.Config.Cache.Enabled,
		"rate_limited_routes", limitedRoutes(a.RateLimiter),
		"database", a.Config.Database.Path,
		"platforms", a.Resolver.Platforms(),
		"tls", a.Server.TLSMode(),
		"telemetry", a.Telemetry.Enabled(),
	)

	return a.Server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flushing telemetry: %w", err))
	}
	return errors.Join(errs...)
}

// batchWorkTime bounds how long one batch request may spend fetching: the URLs
// are worked through in rounds of Concurrency, each capped by the fetch timeout.
func batchWorkTime(cfg *config.Config) time.Duration {
	conc := max(cfg.Batch.Concurrency, 1)
	rounds := (cfg.Batch.MaxURLs + conc - 1) / conc
	return time.Duration(max(rounds, 1)) * (cfg.Preview.Timeout + cfg.Preview.OEmbedTimeout)
}

// every calls fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func limitedRoutes(l *ratelimit.Limiter) int {
	if l == nil {
		return 0
	}
	return l.Routes()
}
