package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/linkshelf/api/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tel.Enabled() {
		t.Error("expected telemetry to be disabled")
	}
	if tel.LogHandler() != nil {
		t.Error("expected nil log handler when disabled")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestShutdown_NilTelemetry(t *testing.T) {
	var tel *Telemetry
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_UnsupportedProtocol(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		Protocol:    "carrier-pigeon",
		ServiceName: "linkshelf",
	}, "test")
	if err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}

func TestSetup_HTTPExportsToCollector(t *testing.T) {
	var (
		mu    sync.Mutex
		paths = map[string]bool{}
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		paths[r.URL.Path] = true
		mu.Unlock()
		w.Header().Set("Content-Type", "application/x-protobuf")
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	tel, err := Setup(context.Background(), config.TelemetryConfig{
		Enabled:        true,
		Protocol:       "http",
		Endpoint:       collector.URL + "/",
		ServiceName:    "linkshelf-test",
		RuntimeMetrics: false,
	}, "test")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !tel.Enabled() {
		t.Fatal("expected telemetry to be enabled")
	}

	h := tel.LogHandler()
	if h == nil {
		t.Fatal("expected a log handler")
	}

	// Shutdown flushes the final metric collection.
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for p := range paths {
		if !strings.HasPrefix(p, "/v1/") {
			t.Errorf("exported to %q, want a /v1/ signal path", p)
		}
	}
}
