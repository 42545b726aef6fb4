package linkpreview

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	vimeoOEmbedEndpoint   = "https://vimeo.com/api/oembed.json"
	twitterOEmbedEndpoint = "https://publish.twitter.com/oembed"
)

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// Vimeo resolves vimeo.com/<id> links through Vimeo's oEmbed API. Lookup
// failures fall through to the generic resolver.
type Vimeo struct {
	OEmbedEndpoint string
}

func (v *Vimeo) Name() string { return "vimeo" }

func (v *Vimeo) Match(u *url.URL) (string, bool) {
	if !hostIn(u, "vimeo.com") {
		return "", false
	}
	segs := pathSegments(u)
	if len(segs) == 0 || !digitsPattern.MatchString(segs[0]) {
		return "", false
	}
	return segs[0], true
}

func (v *Vimeo) Resolve(ctx context.Context, c *OEmbedClient, u *url.URL, id string) (Result, bool) {
	endpoint := v.OEmbedEndpoint
	if endpoint == "" {
		endpoint = vimeoOEmbedEndpoint
	}

	data, err := c.Fetch(ctx, endpoint, url.Values{"url": {"https://vimeo.com/" + id}})
	if err != nil || strings.TrimSpace(data.Title) == "" {
		slog.Debug("vimeo oembed unavailable, falling back", "video_id", id, "error", err)
		return Result{}, false
	}

	return Result{
		Title:  strings.TrimSpace(data.Title),
		Image:  sanitizeImage(data.ThumbnailURL),
		URL:    u.String(),
		Status: StatusOK,
	}, true
}

// Twitter resolves status links on twitter.com and x.com. The oEmbed response
// carries the post as an HTML blockquote; its text becomes the title.
type Twitter struct {
	OEmbedEndpoint string
}

func (t *Twitter) Name() string { return "twitter" }

func (t *Twitter) Match(u *url.URL) (string, bool) {
	if !hostIn(u, "twitter.com", "x.com", "mobile.twitter.com") {
		return "", false
	}
	segs := pathSegments(u)
	for i := 0; i+1 < len(segs); i++ {
		if segs[i] == "status" && digitsPattern.MatchString(segs[i+1]) {
			return segs[i+1], true
		}
	}
	return "", false
}

func (t *Twitter) Resolve(ctx context.Context, c *OEmbedClient, u *url.URL, id string) (Result, bool) {
	endpoint := t.OEmbedEndpoint
	if endpoint == "" {
		endpoint = twitterOEmbedEndpoint
	}

	data, err := c.Fetch(ctx, endpoint, url.Values{
		"url":         {"https://twitter.com/i/status/" + id},
		"omit_script": {"true"},
		"dnt":         {"true"},
		"hide_thread": {"true"},
	})
	if err != nil {
		slog.Debug("twitter oembed unavailable, falling back", "status_id", id, "error", err)
		return Result{}, false
	}

	title := postText(data.HTML)
	if title == "" && data.AuthorName != "" {
		title = "Post by " + data.AuthorName
	}
	if title == "" {
		return Result{}, false
	}

	return Result{
		Title:  title,
		URL:    u.String(),
		Status: StatusOK,
	}, true
}

// postText extracts the paragraph text of an embedded post blockquote.
func postText(embedHTML string) string {
	if strings.TrimSpace(embedHTML) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(embedHTML))
	if err != nil {
		return ""
	}
	text := doc.Find("blockquote p").First().Text()
	if text == "" {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}
