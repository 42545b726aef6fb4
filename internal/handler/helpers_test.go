package handler

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/linkshelf/api/internal/linkpreview"
)

// fakePreviews resolves every valid URL to a canned result without network.
type fakePreviews struct {
	mu        sync.Mutex
	refreshed []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	block       chan struct{}
}

func (f *fakePreviews) Preview(ctx context.Context, raw string) (linkpreview.Result, error) {
	u, err := linkpreview.Normalize(raw)
	if err != nil {
		return linkpreview.Result{}, err
	}

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}

	return resultFor(u), nil
}

func (f *fakePreviews) Refresh(ctx context.Context, raw string) (linkpreview.Result, error) {
	f.mu.Lock()
	f.refreshed = append(f.refreshed, raw)
	f.mu.Unlock()
	return f.Preview(ctx, raw)
}

func resultFor(u *url.URL) linkpreview.Result {
	if u.Hostname() == "slow.example.com" {
		return linkpreview.Result{Title: u.Hostname(), URL: u.String(), Status: linkpreview.StatusTimeout}
	}
	return linkpreview.Result{
		Title:  "Title of " + u.Hostname(),
		Image:  "https://" + u.Host + "/og.png",
		URL:    u.String(),
		Status: linkpreview.StatusOK,
	}
}

func testHandler(t *testing.T) (*Handler, *fakePreviews) {
	t.Helper()

	previews := &fakePreviews{}
	h := New(Dependencies{
		Previews:     previews,
		Platforms:    []string{"youtube", "vimeo", "twitter"},
		CacheEnabled: true,
		Batch:        BatchOptions{MaxURLs: 5, Concurrency: 2},
	})
	return h, previews
}

func ptr[T any](v T) *T {
	return &v
}
