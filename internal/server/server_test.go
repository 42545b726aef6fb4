package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestNew_TLSModes(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSOptions
		wantMode    string
		wantConfig  bool
		wantACME    bool
		wantManager bool
	}{
		{name: "empty", tls: TLSOptions{}, wantMode: TLSOff},
		{name: "off", tls: TLSOptions{Mode: TLSOff}, wantMode: TLSOff},
		{
			name:     "manual",
			tls:      TLSOptions{Mode: TLSManual, CertFile: "/path/to/cert.pem", KeyFile: "/path/to/key.pem"},
			wantMode: TLSManual,
		},
		{
			name:        "auto",
			tls:         TLSOptions{Mode: TLSAuto, Domain: "preview.example.com", Email: "ops@example.com"},
			wantMode:    TLSAuto,
			wantConfig:  true,
			wantACME:    true,
			wantManager: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tls.Mode == TLSAuto {
				tt.tls.CacheDir = t.TempDir()
			}
			s := New(http.NewServeMux(), Options{Host: "localhost", Port: 8443, TLS: tt.tls})

			if got := s.TLSMode(); got != tt.wantMode {
				t.Errorf("TLSMode() = %q, want %q", got, tt.wantMode)
			}
			if got := s.httpServer.TLSConfig != nil; got != tt.wantConfig {
				t.Errorf("TLSConfig set = %v, want %v", got, tt.wantConfig)
			}
			if got := s.acmeServer != nil; got != tt.wantACME {
				t.Errorf("ACME server set = %v, want %v", got, tt.wantACME)
			}
			if got := s.certManager != nil; got != tt.wantManager {
				t.Errorf("cert manager set = %v, want %v", got, tt.wantManager)
			}
		})
	}
}

func TestNew_AutoTLS(t *testing.T) {
	s := New(http.NewServeMux(), Options{
		Host: "0.0.0.0",
		Port: 443,
		TLS:  TLSOptions{Mode: TLSAuto, Domain: "preview.example.com", CacheDir: t.TempDir()},
	})

	if s.httpServer.TLSConfig.GetCertificate == nil {
		t.Fatal("expected GetCertificate to be set")
	}
	if s.acmeServer.Addr != ":80" {
		t.Errorf("ACME server addr = %q, want %q", s.acmeServer.Addr, ":80")
	}
	if s.Addr() != "0.0.0.0:443" {
		t.Errorf("Addr() = %q, want %q", s.Addr(), "0.0.0.0:443")
	}
}

func TestWriteTimeout(t *testing.T) {
	tests := []struct {
		work time.Duration
		want time.Duration
	}{
		{0, 30 * time.Second},
		{8 * time.Second, 30 * time.Second},
		{40 * time.Second, 50 * time.Second},
	}
	for _, tt := range tests {
		if got := WriteTimeout(tt.work); got != tt.want {
			t.Errorf("WriteTimeout(%v) = %v, want %v", tt.work, got, tt.want)
		}
	}

	s := New(http.NewServeMux(), Options{Host: "localhost", WorkTime: time.Minute})
	if s.httpServer.WriteTimeout != 70*time.Second {
		t.Errorf("server WriteTimeout = %v, want %v", s.httpServer.WriteTimeout, 70*time.Second)
	}
}

func TestStartShutdown(t *testing.T) {
	s := New(http.NewServeMux(), Options{Host: "127.0.0.1", Port: 0})

	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("Start returned %v, want ErrServerClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
