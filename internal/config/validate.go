package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

var (
	logLevels          = []string{"debug", "info", "warn", "error"}
	logFormats         = []string{"text", "json"}
	telemetryProtocols = []string{"http", "grpc"}
	knownPlatforms     = []string{"youtube", "vimeo", "twitter"}
)

func Validate(cfg *Config) error {
	var errs []error

	// Server validation
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535"))
	}
	if cfg.Server.PublicURL != "" {
		if _, err := url.Parse(cfg.Server.PublicURL); err != nil {
			errs = append(errs, fmt.Errorf("server.public_url is not a valid URL: %w", err))
		}
	}

	// Allowed origins validation
	for i, origin := range cfg.Server.AllowedOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.allowed_origins[%d] %q is not a valid URL with scheme", i, origin))
		}
	}

	// TLS validation
	switch cfg.Server.TLS.Mode {
	case "", "off":
		// no additional validation needed
	case "auto":
		if cfg.Server.TLS.Auto.Domain == "" {
			errs = append(errs, fmt.Errorf("server.tls.auto.domain is required when tls mode is auto"))
		}
		if cfg.Server.TLS.Auto.CacheDir == "" {
			errs = append(errs, fmt.Errorf("server.tls.auto.cache_dir is required when tls mode is auto"))
		}
	case "manual":
		if cfg.Server.TLS.CertFile == "" {
			errs = append(errs, fmt.Errorf("server.tls.cert_file is required when tls mode is manual"))
		}
		if cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, fmt.Errorf("server.tls.key_file is required when tls mode is manual"))
		}
	default:
		errs = append(errs, fmt.Errorf("server.tls.mode must be off, auto, or manual"))
	}

	// Log validation
	if !slices.Contains(logLevels, strings.ToLower(cfg.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level must be one of %s", strings.Join(logLevels, ", ")))
	}
	if !slices.Contains(logFormats, strings.ToLower(cfg.Log.Format)) {
		errs = append(errs, fmt.Errorf("log.format must be text or json"))
	}

	// Database validation (only needed for the cache)
	if cfg.Cache.Enabled && cfg.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required when cache is enabled"))
	}

	// Preview validation
	if cfg.Preview.Timeout < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("preview.timeout must be at least 100ms"))
	}
	if cfg.Preview.OEmbedTimeout < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("preview.oembed_timeout must be at least 100ms"))
	}
	if cfg.Preview.MaxBodySize < 1024 {
		errs = append(errs, fmt.Errorf("preview.max_body_size must be at least 1KB"))
	}
	if cfg.Preview.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("preview.max_redirects must not be negative"))
	}
	for i, name := range cfg.Preview.Platforms {
		if !slices.Contains(knownPlatforms, strings.ToLower(strings.TrimSpace(name))) {
			errs = append(errs, fmt.Errorf("preview.platforms[%d] %q must be one of %s", i, name, strings.Join(knownPlatforms, ", ")))
		}
	}

	// Cache validation (only when enabled)
	if cfg.Cache.Enabled {
		if cfg.Cache.TTL < time.Second {
			errs = append(errs, fmt.Errorf("cache.ttl must be at least 1s"))
		}
		if cfg.Cache.ErrorTTL < time.Second {
			errs = append(errs, fmt.Errorf("cache.error_ttl must be at least 1s"))
		}
		if cfg.Cache.CleanupInterval < time.Second {
			errs = append(errs, fmt.Errorf("cache.cleanup_interval must be at least 1s"))
		}
	}

	// Batch validation
	if cfg.Batch.MaxURLs < 1 {
		errs = append(errs, fmt.Errorf("batch.max_urls must be at least 1"))
	}
	if cfg.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be at least 1"))
	}
	if cfg.Batch.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("batch.rate_per_second must not be negative"))
	}

	// Rate limit validation (only when enabled)
	if cfg.RateLimit.Enabled {
		for _, ep := range []struct {
			name string
			cfg  RateLimitEndpoint
		}{
			{"rate_limit.preview", cfg.RateLimit.Preview},
			{"rate_limit.batch", cfg.RateLimit.Batch},
		} {
			if ep.cfg.Limit < 1 {
				errs = append(errs, fmt.Errorf("%s.limit must be at least 1", ep.name))
			}
			if ep.cfg.Window < time.Second {
				errs = append(errs, fmt.Errorf("%s.window must be at least 1s", ep.name))
			}
		}
	}

	// Telemetry validation (only when enabled)
	if cfg.Telemetry.Enabled {
		if !slices.Contains(telemetryProtocols, cfg.Telemetry.Protocol) {
			errs = append(errs, fmt.Errorf("telemetry.protocol must be http or grpc"))
		}
		if cfg.Telemetry.ServiceName == "" {
			errs = append(errs, fmt.Errorf("telemetry.service_name is required when telemetry is enabled"))
		}
		if cfg.Telemetry.Endpoint != "" {
			u, err := url.Parse(cfg.Telemetry.Endpoint)
			if err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, fmt.Errorf("telemetry.endpoint %q is not a valid URL with scheme", cfg.Telemetry.Endpoint))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
