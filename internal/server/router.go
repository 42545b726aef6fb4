package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	strictnethttp "github.com/oapi-codegen/runtime/strictmiddleware/nethttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linkshelf/api/internal/handler"
	"github.com/linkshelf/api/internal/openapi"
	"github.com/linkshelf/api/internal/ratelimit"
)

// NewRouter creates a new HTTP router with all routes registered.
// A nil limiter disables rate limiting.
func NewRouter(h *handler.Handler, limiter *ratelimit.Limiter, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			MaxAge:         86400,
		}))
	}

	r.Use(ratelimit.Middleware(limiter))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Log the operation alongside the request ID so handler logs can be joined
	// with the access log line.
	strictMiddleware := func(f strictnethttp.StrictHTTPHandlerFunc, operationID string) strictnethttp.StrictHTTPHandlerFunc {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request, request interface{}) (interface{}, error) {
			slog.DebugContext(ctx, "handling operation", "operation", operationID, "request_id", RequestID(ctx))
			return f(ctx, w, r, request)
		}
	}

	strictHandler := openapi.NewStrictHandlerWithOptions(h, []openapi.StrictMiddlewareFunc{strictMiddleware}, openapi.StrictHTTPServerOptions{
		RequestErrorHandlerFunc:  requestErrorHandler,
		ResponseErrorHandlerFunc: responseErrorHandler,
	})

	// Mount API routes with /api base URL, each traced under its route pattern
	api := chi.NewRouter()
	api.Use(otelhttp.NewMiddleware("linkshelf",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))
	openapi.HandlerWithOptions(strictHandler, openapi.ChiServerOptions{
		BaseRouter:       api,
		ErrorHandlerFunc: requestErrorHandler,
	})
	r.Mount("/api", api)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, handler.ErrCodeNotFound, "Not found")
	})

	return r
}

func requestErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, http.StatusBadRequest, handler.ErrCodeBadRequest, err.Error())
}

func responseErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("unhandled handler error",
		"error", err.Error(),
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, handler.ErrCodeInternalError, "An internal error occurred")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(handler.NewErrorResponse(code, message))
}
