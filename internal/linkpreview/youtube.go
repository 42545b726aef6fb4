package linkpreview

import (
	"context"
	"log/slog"
	"net/url"
	"regexp"
)

const (
	youtubeOEmbedEndpoint = "https://www.youtube.com/oembed"
	youtubeThumbnailBase  = "https://i.ytimg.com/vi/"
	youtubeDefaultTitle   = "YouTube Video"
)

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// YouTube resolves youtube.com and youtu.be links via oEmbed and derives the
// thumbnail from the video id. It never degrades to a failure status.
type YouTube struct {
	// OEmbedEndpoint overrides the oEmbed URL; empty uses YouTube's.
	OEmbedEndpoint string
}

func (y *YouTube) Name() string { return "youtube" }

// Match reads the v query parameter on youtube.com hosts (plus /shorts/ and
// /embed/ paths) and the first path segment on youtu.be.
func (y *YouTube) Match(u *url.URL) (string, bool) {
	var id string
	switch {
	case hostIn(u, "youtu.be"):
		if segs := pathSegments(u); len(segs) > 0 {
			id = segs[0]
		}
	case hostIn(u, "youtube.com", "m.youtube.com", "music.youtube.com"):
		id = u.Query().Get("v")
		if segs := pathSegments(u); id == "" && len(segs) >= 2 && (segs[0] == "shorts" || segs[0] == "embed") {
			id = segs[1]
		}
	}

	if id == "" || !youtubeIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func (y *YouTube) Resolve(ctx context.Context, c *OEmbedClient, u *url.URL, id string) (Result, bool) {
	endpoint := y.OEmbedEndpoint
	if endpoint == "" {
		endpoint = youtubeOEmbedEndpoint
	}

	data, err := c.Fetch(ctx, endpoint, url.Values{
		"url":    {u.String()},
		"format": {"json"},
	})
	if err != nil {
		slog.Debug("youtube oembed failed, using id-derived preview", "video_id", id, "error", err)
		return Result{
			Title:  youtubeDefaultTitle,
			Image:  YouTubeThumbnail(id, false),
			URL:    u.String(),
			Status: StatusOK,
		}, true
	}

	title := data.Title
	if title == "" {
		title = youtubeDefaultTitle
	}
	return Result{
		Title:  title,
		Image:  YouTubeThumbnail(id, true),
		URL:    u.String(),
		Status: StatusOK,
	}, true
}

// YouTubeThumbnail returns the thumbnail URL for a video id. maxRes selects the
// maximum-resolution variant; otherwise the always-present hqdefault is used.
func YouTubeThumbnail(id string, maxRes bool) string {
	if maxRes {
		return youtubeThumbnailBase + id + "/maxresdefault.jpg"
	}
	return youtubeThumbnailBase + id + "/hqdefault.jpg"
}
