package linkpreview

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when input cannot be coerced into an absolute URL.
var ErrInvalidURL = errors.New("invalid url")

// Normalize turns user input into an absolute http(s) URL. Input without an
// http or https prefix gets "https://" prepended. Nothing else is rewritten.
func Normalize(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidURL)
	}

	if !hasHTTPScheme(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, raw)
	}
	if port := u.Port(); port == "" && strings.HasSuffix(u.Host, ":") {
		return nil, fmt.Errorf("%w: empty port in %q", ErrInvalidURL, raw)
	}

	return u, nil
}

// hasHTTPScheme reports whether s starts with http:// or https://, ignoring case.
func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// origin returns scheme://host for u.
func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
