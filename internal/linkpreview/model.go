package linkpreview

import "time"

const (
	// CacheTTL is how long successful resolutions are cached.
	CacheTTL = 24 * time.Hour
	// ErrorCacheTTL is how long degraded resolutions are cached.
	ErrorCacheTTL = 5 * time.Minute
)

// Status describes how a preview was obtained.
type Status string

const (
	StatusOK         Status = "ok"
	StatusTimeout    Status = "timeout"
	StatusFetchError Status = "fetch_error"
	StatusNonHTML    Status = "non_html"
)

// Degraded reports whether the result was produced without reading the page.
func (s Status) Degraded() bool {
	return s == StatusTimeout || s == StatusFetchError
}

// Result is the preview metadata returned for a URL. Title is never empty and
// Image is either empty or an absolute http(s) URL.
type Result struct {
	Title  string `json:"title"`
	Image  string `json:"image"`
	URL    string `json:"url"`
	Status Status `json:"status"`
}

// CacheEntry is a URL-level cache row keyed by normalized URL.
type CacheEntry struct {
	URL       string
	Title     string
	Image     string
	Status    Status
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Result converts the cache row back into a preview result.
func (c *CacheEntry) Result() Result {
	return Result{
		Title:  c.Title,
		Image:  c.Image,
		URL:    c.URL,
		Status: c.Status,
	}
}
