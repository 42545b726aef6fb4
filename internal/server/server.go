package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/crypto/acme/autocert"
)

// TLS modes understood by Server.
const (
	TLSOff    = "off"
	TLSAuto   = "auto"
	TLSManual = "manual"
)

const (
	minWriteTimeout = 30 * time.Second
	writeSlack      = 10 * time.Second
)

type TLSOptions struct {
	Mode     string
	CertFile string // manual
	KeyFile  string // manual
	Domain   string // auto
	Email    string // auto
	CacheDir string // auto
}

// Options configures a Server.
type Options struct {
	Host string
	Port int
	TLS  TLSOptions

	// WorkTime is the longest a handler is expected to spend on upstream
	// fetches. The write deadline is stretched to cover it.
	WorkTime time.Duration
}

// WriteTimeout returns the write deadline for a server whose slowest handler
// does work of the given length.
func WriteTimeout(work time.Duration) time.Duration {
	return max(minWriteTimeout, work+writeSlack)
}

type Server struct {
	httpServer  *http.Server
	acmeServer  *http.Server // port 80 ACME challenges, auto TLS only
	certManager *autocert.Manager
	tls         TLSOptions
}

func New(handler http.Handler, opts Options) *Server {
	if opts.TLS.Mode == "" {
		opts.TLS.Mode = TLSOff
	}

	s := &Server{
		tls: opts.TLS,
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      WriteTimeout(opts.WorkTime),
			IdleTimeout:       120 * time.Second,
			ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		},
	}
	if opts.TLS.Mode == TLSAuto {
		s.setupAutocert()
	}
	return s
}

func (s *Server) setupAutocert() {
	s.certManager = &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(s.tls.Domain),
		Cache:      autocert.DirCache(s.tls.CacheDir),
		Email:      s.tls.Email,
	}
	s.httpServer.TLSConfig = &tls.Config{
		GetCertificate: s.certManager.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
	s.acmeServer = &http.Server{
		Addr:              ":80",
		Handler:           s.certManager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// Start blocks serving requests until Shutdown is called, at which point it
// returns http.ErrServerClosed.
func (s *Server) Start() error {
	log := slog.With("addr", s.Addr(), "tls", s.tls.Mode)

	switch s.tls.Mode {
	case TLSAuto:
		go s.serveACME()
		log.Info("listening", "domain", s.tls.Domain)
		return s.httpServer.ListenAndServeTLS("", "")
	case TLSManual:
		log.Info("listening", "cert", s.tls.CertFile)
		return s.httpServer.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
	default:
		log.Info("listening")
		return s.httpServer.ListenAndServe()
	}
}

func (s *Server) serveACME() {
	slog.Info("listening for ACME challenges", "addr", s.acmeServer.Addr)
	if err := s.acmeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("ACME challenge server stopped", "error", err)
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	if s.acmeServer != nil {
		if err := s.acmeServer.Shutdown(ctx); err != nil {
			slog.Warn("ACME challenge server shutdown", "error", err)
		}
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) TLSMode() string {
	return s.tls.Mode
}
