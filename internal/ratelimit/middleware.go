package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Middleware enforces l per client IP. Requests to paths without a rule pass
// through untouched; limited paths get X-RateLimit-* headers and a 429 once
// the window is exhausted. A nil limiter disables the middleware.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := l.Allow(clientIP(r), r.Method, r.URL.Path)
			if res.Limit > 0 {
				h := w.Header()
				h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
				h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
				h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			}
			if !ok {
				retry := int(math.Ceil(res.RetryIn.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))

				var body errorBody
				body.Error.Code = "RATE_LIMITED"
				body.Error.Message = "Too many requests, try again later"
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware may have
// already replaced it with a bare address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
