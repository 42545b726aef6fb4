package linkpreview

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minImageSrcLen and minImageDimension filter out tracking pixels and icons
// during the <img> fallback scan.
const (
	minImageSrcLen    = 10
	minImageDimension = 100
)

// absoluteHTTPPattern matches the only image URLs allowed in a Result.
var absoluteHTTPPattern = regexp.MustCompile(`(?i)^https?://[^\s/?#]+[^\s]*$`)

// schemePattern matches any URL scheme prefix such as "data:" or "javascript:".
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// extractor pulls one candidate value out of a parsed document.
type extractor func(doc *goquery.Document) string

// extractorChain is an ordered list of extractors; the first non-empty value wins.
type extractorChain []extractor

func (c extractorChain) first(doc *goquery.Document) string {
	for _, extract := range c {
		if v := strings.TrimSpace(extract(doc)); v != "" {
			return v
		}
	}
	return ""
}

var titleChain = extractorChain{
	metaContent(`meta[property="og:title"]`, `meta[name="og:title"]`),
	metaContent(`meta[name="twitter:title"]`, `meta[property="twitter:title"]`),
	elementText("title"),
	elementText("h1"),
}

var imageChain = extractorChain{
	metaContent(`meta[property="og:image"]`, `meta[name="og:image"]`),
	metaContent(`meta[property="og:image:secure_url"]`),
	metaContent(
		`meta[name="twitter:image"]`, `meta[property="twitter:image"]`,
		`meta[name="twitter:image:src"]`, `meta[property="twitter:image:src"]`,
	),
	metaContent(`meta[itemprop="image"]`),
}

// metaContent returns the first non-empty content attribute among elements
// matching any of the selectors, in document order.
func metaContent(selectors ...string) extractor {
	sel := strings.Join(selectors, ", ")
	return func(doc *goquery.Document) string {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = strings.TrimSpace(s.AttrOr("content", ""))
			return found == ""
		})
		return found
	}
}

// elementText returns the whitespace-collapsed text of the first matching element.
func elementText(selector string) extractor {
	return func(doc *goquery.Document) string {
		return strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
	}
}

// extractTitle runs the title chain, falling back to the page hostname.
func extractTitle(doc *goquery.Document, page *url.URL) string {
	if title := titleChain.first(doc); title != "" {
		return title
	}
	return page.Hostname()
}

// extractImage runs the image chain, replaces missing or icon-like images with
// the first plausible <img>, and discards anything that is not absolute http(s).
func extractImage(doc *goquery.Document, page *url.URL) string {
	image := sanitizeImage(absolutize(imageChain.first(doc), page))

	if image == "" || looksLikeIcon(imagePath(image)) {
		if candidate := scanImages(doc, page); candidate != "" {
			image = candidate
		}
	}

	return sanitizeImage(image)
}

// scanImages walks <img> elements in document order and returns the first
// absolutized src that is long enough, not icon-like and not tiny.
func scanImages(doc *goquery.Document, page *url.URL) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if len(src) <= minImageSrcLen || looksLikeIcon(src) {
			return true
		}
		if !largeEnough(s.AttrOr("width", ""), s.AttrOr("height", "")) {
			return true
		}
		found = sanitizeImage(absolutize(src, page))
		return found == ""
	})
	return found
}

// largeEnough accepts images whose declared dimensions are absent or zero, and
// otherwise requires every declared dimension to exceed minImageDimension.
func largeEnough(width, height string) bool {
	for _, d := range []int{parseDimension(width), parseDimension(height)} {
		if d != 0 && d <= minImageDimension {
			return false
		}
	}
	return true
}

// parseDimension reads the leading digits of an HTML width/height attribute
// such as "300" or "300px". Anything unparsable counts as absent.
func parseDimension(s string) int {
	s = strings.TrimSpace(s)
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n > 1<<20 {
			break
		}
	}
	return n
}

// absolutize resolves an image reference against the page origin:
// "//host/p" gets https:, "/p" gets the origin, bare paths get origin + "/".
// Values carrying any other scheme are returned as-is for sanitizeImage to reject.
func absolutize(ref string, page *url.URL) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case hasHTTPScheme(ref):
		return ref
	case strings.HasPrefix(ref, "//"):
		return "https:" + ref
	case strings.HasPrefix(ref, "/"):
		return origin(page) + ref
	case schemePattern.MatchString(ref):
		return ref
	default:
		return origin(page) + "/" + ref
	}
}

// sanitizeImage drops anything that is not an absolute http(s) URL.
func sanitizeImage(image string) string {
	image = strings.TrimSpace(image)
	if !absoluteHTTPPattern.MatchString(image) {
		return ""
	}
	return image
}

// imagePath returns the path component of an image URL, or the raw string if
// it does not parse.
func imagePath(image string) string {
	u, err := url.Parse(image)
	if err != nil {
		return image
	}
	return u.Path
}

// looksLikeIcon matches "icon" case-insensitively, which also covers "favicon".
func looksLikeIcon(s string) bool {
	return strings.Contains(strings.ToLower(s), "icon")
}
