package linkpreview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout      = 8 * time.Second
	defaultMaxBodySize  = 1 << 20 // 1 MB
	defaultMaxRedirects = 5
	// DefaultUserAgent is a desktop Chrome user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

var tracer = otel.Tracer("github.com/linkshelf/api/internal/linkpreview")

// Options configures a Resolver.
type Options struct {
	Timeout       time.Duration
	OEmbedTimeout time.Duration
	MaxBodySize   int64
	MaxRedirects  int
	UserAgent     string
	// AllowPrivateNetworks disables the private-IP dial guard.
	AllowPrivateNetworks bool
	// Platforms restricts the fast paths by name; empty enables all.
	Platforms []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Timeout:       defaultTimeout,
		OEmbedTimeout: defaultTimeout,
		MaxBodySize:   defaultMaxBodySize,
		MaxRedirects:  defaultMaxRedirects,
		UserAgent:     DefaultUserAgent,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.OEmbedTimeout <= 0 {
		o.OEmbedTimeout = d.OEmbedTimeout
	}
	if o.MaxBodySize <= 0 {
		o.MaxBodySize = d.MaxBodySize
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = d.MaxRedirects
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	return o
}

// Resolver turns URLs into preview metadata. It holds no per-call state and
// is safe for concurrent use.
type Resolver struct {
	client    *http.Client
	oembed    *OEmbedClient
	platforms []PlatformHandler
	opts      Options
}

// NewResolver creates a Resolver with an SSRF-safe HTTP client and the
// built-in platform handlers.
func NewResolver(opts Options) *Resolver {
	return NewResolverWithClient(opts, nil, nil)
}

// NewResolverWithClient creates a Resolver with a custom HTTP client and
// platform handlers. A nil client builds the default one; nil platforms uses
// DefaultPlatforms filtered by opts.Platforms.
func NewResolverWithClient(opts Options, client *http.Client, platforms []PlatformHandler) *Resolver {
	opts = opts.withDefaults()

	if client == nil {
		client = newHTTPClient(opts)
	}
	if platforms == nil {
		platforms = SelectPlatforms(DefaultPlatforms(), opts.Platforms)
	}

	return &Resolver{
		client: client,
		oembed: &OEmbedClient{
			client:    client,
			userAgent: opts.UserAgent,
			timeout:   opts.OEmbedTimeout,
			maxBody:   opts.MaxBodySize,
		},
		platforms: platforms,
		opts:      opts,
	}
}

func newHTTPClient(opts Options) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.AllowPrivateNetworks {
		transport.DialContext = safeDialContext
	}
	// No pooled connections: each resolve owns its socket.
	transport.DisableKeepAlives = true

	maxRedirects := opts.MaxRedirects
	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// Platforms lists the names of the enabled platform fast paths in dispatch order.
func (r *Resolver) Platforms() []string {
	names := make([]string, len(r.platforms))
	for i, h := range r.platforms {
		names[i] = h.Name()
	}
	return names
}

// Resolve normalizes raw and resolves it. The only error returned is one
// wrapping ErrInvalidURL; every other failure degrades to a usable Result.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Result, error) {
	u, err := Normalize(raw)
	if err != nil {
		return Result{}, err
	}
	return r.ResolveURL(ctx, u), nil
}

// ResolveURL resolves an already-normalized URL, trying platform fast paths
// before the generic HTML resolver.
func (r *Resolver) ResolveURL(ctx context.Context, u *url.URL) Result {
	ctx, span := tracer.Start(ctx, "linkpreview.resolve",
		trace.WithAttributes(attribute.String("url.host", u.Hostname())))
	defer span.End()

	res := r.resolve(ctx, u)
	res.Title = trimOr(res.Title, u.Hostname())
	res.Image = sanitizeImage(res.Image)

	span.SetAttributes(attribute.String("preview.status", string(res.Status)))
	return res
}

func (r *Resolver) resolve(ctx context.Context, u *url.URL) Result {
	if h, id, ok := detectPlatform(r.platforms, u); ok {
		if res, ok := h.Resolve(ctx, r.oembed, u, id); ok {
			return res
		}
	}
	return r.resolveGeneric(ctx, u)
}

// resolveGeneric fetches the page under a per-call deadline and runs the
// title and image extractor chains over it.
func (r *Resolver) resolveGeneric(ctx context.Context, u *url.URL) Result {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	fallback := Result{Title: u.Hostname(), URL: u.String()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		fallback.Status = StatusFetchError
		return fallback
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := r.client.Do(req)
	if err != nil {
		fallback.Status = failureStatus(ctx, err)
		slog.Debug("preview fetch failed", "url", u.String(), "status", fallback.Status, "error", err)
		return fallback
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.opts.MaxBodySize))
	if err != nil {
		// A body cut off by the deadline is never treated as a complete page.
		if status := failureStatus(ctx, err); status == StatusTimeout || len(body) == 0 {
			fallback.Status = status
			slog.Debug("preview body read failed", "url", u.String(), "status", status, "bytes", len(body), "error", err)
			return fallback
		}
	}

	if !isHTML(resp.Header.Get("Content-Type"), body) {
		fallback.Status = StatusNonHTML
		return fallback
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fallback.Status = StatusFetchError
		slog.Debug("preview fetch returned non-2xx", "url", u.String(), "http_status", resp.StatusCode)
		return fallback
	}

	// Relative image references resolve against where the redirects landed.
	page := u
	if resp.Request != nil && resp.Request.URL != nil {
		page = resp.Request.URL
	}

	root, err := html.Parse(decodeBody(body, resp.Header.Get("Content-Type")))
	if err != nil {
		fallback.Status = StatusOK
		return fallback
	}
	doc := goquery.NewDocumentFromNode(root)

	return Result{
		Title:  extractTitle(doc, u),
		Image:  extractImage(doc, page),
		URL:    u.String(),
		Status: StatusOK,
	}
}

// decodeBody converts body to UTF-8 using the charset from the Content-Type
// header or the document's own meta declaration. Unknown charsets leave the
// bytes as they are.
func decodeBody(body []byte, contentType string) io.Reader {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return bytes.NewReader(body)
	}
	return r
}

// failureStatus classifies a transport error as a timeout or a fetch error.
func failureStatus(ctx context.Context, err error) Status {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	return StatusFetchError
}

// isHTML checks the declared content type, sniffing the body when none is set.
func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func trimOr(s, fallback string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return fallback
}
