package handler

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/linkshelf/api/internal/linkpreview"
	"github.com/linkshelf/api/internal/openapi"
)

// Compile-time interface check
var _ openapi.StrictServerInterface = (*Handler)(nil)

// PreviewService resolves previews, optionally bypassing the cache.
type PreviewService interface {
	Preview(ctx context.Context, raw string) (linkpreview.Result, error)
	Refresh(ctx context.Context, raw string) (linkpreview.Result, error)
}

// BatchOptions bounds POST /previews.
type BatchOptions struct {
	MaxURLs       int
	Concurrency   int
	RatePerSecond float64 // 0 disables pacing
}

// Handler implements the StrictServerInterface
type Handler struct {
	previews     PreviewService
	platforms    []string
	cacheEnabled bool
	batch        BatchOptions
	pacer        *rate.Limiter
}

// Dependencies holds all dependencies for the Handler
type Dependencies struct {
	Previews     PreviewService
	Platforms    []string
	CacheEnabled bool
	Batch        BatchOptions
}

// New creates a new Handler with all dependencies
func New(deps Dependencies) *Handler {
	batch := deps.Batch
	if batch.MaxURLs < 1 {
		batch.MaxURLs = 20
	}
	if batch.Concurrency < 1 {
		batch.Concurrency = 4
	}

	limit := rate.Inf
	if batch.RatePerSecond > 0 {
		limit = rate.Limit(batch.RatePerSecond)
	}

	return &Handler{
		previews:     deps.Previews,
		platforms:    deps.Platforms,
		cacheEnabled: deps.CacheEnabled,
		batch:        batch,
		pacer:        rate.NewLimiter(limit, batch.Concurrency),
	}
}
