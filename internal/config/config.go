package config

import "time"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Preview   PreviewConfig   `koanf:"preview"`
	Cache     CacheConfig     `koanf:"cache"`
	Batch     BatchConfig     `koanf:"batch"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Host           string    `koanf:"host"`
	Port           int       `koanf:"port"`
	PublicURL      string    `koanf:"public_url"`
	AllowedOrigins []string  `koanf:"allowed_origins"`
	TLS            TLSConfig `koanf:"tls"`
}

type TLSConfig struct {
	Mode     string        `koanf:"mode"` // off, auto or manual
	CertFile string        `koanf:"cert_file"`
	KeyFile  string        `koanf:"key_file"`
	Auto     AutoTLSConfig `koanf:"auto"`
}

type AutoTLSConfig struct {
	Domain   string `koanf:"domain"`
	Email    string `koanf:"email"`
	CacheDir string `koanf:"cache_dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text or json
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// PreviewConfig tunes outbound fetches made while resolving previews.
type PreviewConfig struct {
	Timeout              time.Duration `koanf:"timeout"`
	OEmbedTimeout        time.Duration `koanf:"oembed_timeout"`
	MaxBodySize          int64         `koanf:"max_body_size"`
	MaxRedirects         int           `koanf:"max_redirects"`
	UserAgent            string        `koanf:"user_agent"`
	AllowPrivateNetworks bool          `koanf:"allow_private_networks"`
	Platforms            []string      `koanf:"platforms"`
}

type CacheConfig struct {
	Enabled         bool          `koanf:"enabled"`
	TTL             time.Duration `koanf:"ttl"`
	ErrorTTL        time.Duration `koanf:"error_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

type BatchConfig struct {
	MaxURLs       int     `koanf:"max_urls"`
	Concurrency   int     `koanf:"concurrency"`
	RatePerSecond float64 `koanf:"rate_per_second"`
}

type RateLimitConfig struct {
	Enabled bool              `koanf:"enabled"`
	Preview RateLimitEndpoint `koanf:"preview"`
	Batch   RateLimitEndpoint `koanf:"batch"`
}

type RateLimitEndpoint struct {
	Limit  int           `koanf:"limit"`
	Window time.Duration `koanf:"window"`
}

type TelemetryConfig struct {
	Enabled        bool   `koanf:"enabled"`
	Protocol       string `koanf:"protocol"` // http or grpc
	Endpoint       string `koanf:"endpoint"`
	ServiceName    string `koanf:"service_name"`
	RuntimeMetrics bool   `koanf:"runtime_metrics"`
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			PublicURL: "http://localhost:8080",
			TLS: TLSConfig{
				Mode: "off",
				Auto: AutoTLSConfig{
					CacheDir: "./data/certs",
				},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			Path: ":memory:",
		},
		Preview: PreviewConfig{
			Timeout:       8 * time.Second,
			OEmbedTimeout: 3 * time.Second,
			MaxBodySize:   1 << 20, // 1MB
			MaxRedirects:  5,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             24 * time.Hour,
			ErrorTTL:        5 * time.Minute,
			CleanupInterval: time.Hour,
		},
		Batch: BatchConfig{
			MaxURLs:       20,
			Concurrency:   4,
			RatePerSecond: 10,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Preview: RateLimitEndpoint{Limit: 60, Window: time.Minute},
			Batch:   RateLimitEndpoint{Limit: 10, Window: time.Minute},
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Protocol:       "http",
			ServiceName:    "linkshelf",
			RuntimeMetrics: true,
		},
	}
}
