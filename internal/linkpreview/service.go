package linkpreview

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/linkshelf/api/internal/linkpreview"

// URLResolver resolves a normalized URL into a preview.
type URLResolver interface {
	ResolveURL(ctx context.Context, u *url.URL) Result
}

// ServiceOptions configures cache lifetimes for a Service.
type ServiceOptions struct {
	TTL      time.Duration
	ErrorTTL time.Duration
}

// Service memoizes resolutions by normalized URL in front of a resolver.
// A nil repository disables caching.
type Service struct {
	resolver URLResolver
	repo     *Repository
	ttl      time.Duration
	errorTTL time.Duration

	resolutions metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewService creates a Service. Zero TTLs fall back to CacheTTL and ErrorCacheTTL.
func NewService(resolver URLResolver, repo *Repository, opts ServiceOptions) *Service {
	if opts.TTL <= 0 {
		opts.TTL = CacheTTL
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = ErrorCacheTTL
	}

	s := &Service{
		resolver: resolver,
		repo:     repo,
		ttl:      opts.TTL,
		errorTTL: opts.ErrorTTL,
	}
	s.initMetrics()
	return s
}

func (s *Service) initMetrics() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter("linkshelf.preview.resolutions",
		metric.WithDescription("Preview lookups by outcome status and cache use"))
	if err != nil {
		slog.Warn("creating preview counter", "error", err)
		counter = noop.Int64Counter{}
	}
	s.resolutions = counter

	hist, err := meter.Float64Histogram("linkshelf.preview.duration",
		metric.WithDescription("Time spent resolving previews"),
		metric.WithUnit("s"))
	if err != nil {
		slog.Warn("creating preview histogram", "error", err)
		hist = noop.Float64Histogram{}
	}
	s.duration = hist
}

// Preview returns the preview for raw, using the cache when possible. The only
// error returned wraps ErrInvalidURL.
func (s *Service) Preview(ctx context.Context, raw string) (Result, error) {
	return s.preview(ctx, raw, false)
}

// Refresh drops any cached preview for raw and resolves it again.
func (s *Service) Refresh(ctx context.Context, raw string) (Result, error) {
	return s.preview(ctx, raw, true)
}

func (s *Service) preview(ctx context.Context, raw string, refresh bool) (Result, error) {
	u, err := Normalize(raw)
	if err != nil {
		return Result{}, err
	}
	key := u.String()

	if s.repo != nil {
		if refresh {
			if err := s.repo.DeleteCachedURL(ctx, key); err != nil {
				slog.Warn("dropping cached preview", "url", key, "error", err)
			}
		} else if cached := s.lookup(ctx, key); cached != nil {
			res := cached.Result()
			s.record(ctx, res.Status, true, 0)
			return res, nil
		}
	}

	start := time.Now()
	res := s.resolver.ResolveURL(ctx, u)
	elapsed := time.Since(start)
	s.record(ctx, res.Status, false, elapsed)

	slog.Debug("resolved preview", "url", key, "status", res.Status, "duration", elapsed)

	if s.repo != nil && ctx.Err() == nil {
		s.store(ctx, res)
	}
	return res, nil
}

// lookup reads the cache; storage errors are logged and treated as a miss so
// callers still get a live resolution.
func (s *Service) lookup(ctx context.Context, key string) *CacheEntry {
	cached, err := s.repo.GetCachedURL(ctx, key)
	if err != nil {
		slog.Warn("reading preview cache", "url", key, "error", err)
		return nil
	}
	return cached
}

func (s *Service) store(ctx context.Context, res Result) {
	now := time.Now().UTC()
	ttl := s.ttl
	if res.Status.Degraded() {
		ttl = s.errorTTL
	}

	entry := &CacheEntry{
		URL:       res.URL,
		Title:     res.Title,
		Image:     res.Image,
		Status:    res.Status,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.repo.SetCachedURL(ctx, entry); err != nil {
		slog.Warn("writing preview cache", "url", res.URL, "error", err)
	}
}

// CleanExpired removes expired cache rows. It is a no-op without a repository.
func (s *Service) CleanExpired(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	n, err := s.repo.CleanExpiredCache(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Debug("cleaned expired previews", "count", n)
	}
	return nil
}

func (s *Service) record(ctx context.Context, status Status, cached bool, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("status", string(status)),
		attribute.Bool("cached", cached),
	)
	s.resolutions.Add(ctx, 1, attrs)
	if !cached {
		s.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}
