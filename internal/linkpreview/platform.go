package linkpreview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PlatformHandler is a fast path for a known platform. Match extracts the
// platform's content id from a normalized URL; Resolve builds the preview from
// that id. A false second return from Resolve hands the URL to the generic
// HTML resolver.
type PlatformHandler interface {
	Name() string
	Match(u *url.URL) (id string, ok bool)
	Resolve(ctx context.Context, c *OEmbedClient, u *url.URL, id string) (Result, bool)
}

// DefaultPlatforms returns the built-in handlers in dispatch order.
func DefaultPlatforms() []PlatformHandler {
	return []PlatformHandler{
		&YouTube{},
		&Vimeo{},
		&Twitter{},
	}
}

// SelectPlatforms filters handlers to the given names, keeping dispatch order.
// An empty names list keeps every handler.
func SelectPlatforms(handlers []PlatformHandler, names []string) []PlatformHandler {
	if len(names) == 0 {
		return handlers
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(strings.TrimSpace(n))] = true
	}

	var selected []PlatformHandler
	for _, h := range handlers {
		if wanted[h.Name()] {
			selected = append(selected, h)
		}
	}
	return selected
}

// detectPlatform returns the first handler matching u.
func detectPlatform(handlers []PlatformHandler, u *url.URL) (PlatformHandler, string, bool) {
	for _, h := range handlers {
		if id, ok := h.Match(u); ok {
			return h, id, true
		}
	}
	return nil, "", false
}

// OEmbed is the subset of an oEmbed response used for previews.
type OEmbed struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	HTML         string `json:"html"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
}

// OEmbedClient performs bounded oEmbed lookups for platform handlers.
type OEmbedClient struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBody   int64
}

// Fetch queries an oEmbed endpoint. The call is bounded by the client's own
// deadline in addition to ctx.
func (c *OEmbedClient) Fetch(ctx context.Context, endpoint string, params url.Values) (*OEmbed, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oembed: HTTP %d", resp.StatusCode)
	}

	var data OEmbed
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(&data); err != nil {
		return nil, fmt.Errorf("oembed: decoding response: %w", err)
	}
	return &data, nil
}

// hostIn reports whether u's host, without a leading "www.", is one of hosts.
func hostIn(u *url.URL, hosts ...string) bool {
	h := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, want := range hosts {
		if h == want {
			return true
		}
	}
	return false
}

// pathSegments splits the URL path into non-empty segments.
func pathSegments(u *url.URL) []string {
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
