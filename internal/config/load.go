package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment overrides, e.g. LINKSHELF_SERVER_PORT.
const EnvPrefix = "LINKSHELF_"

func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(defaultsProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load from config file if it exists
	if err := loadFile(k, configPath); err != nil {
		return nil, err
	}

	// 3. Load from environment variables
	keys := envKeys(k.Keys())
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envToKey(keys, s)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// 4. Load from CLI flags
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	// 5. Unmarshal into struct
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
	}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// 6. Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func loadFile(k *koanf.Koanf, configPath string) error {
	paths := []string{"config.yaml", "config.yml"}
	if configPath != "" {
		paths = []string{configPath}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file: %w", err)
		}
		return nil
	}
	return nil
}

// envKeys maps the underscore form of every known key to its dotted path,
// e.g. "rate_limit_preview_limit" -> "rate_limit.preview.limit".
func envKeys(known []string) map[string]string {
	m := make(map[string]string, len(known))
	for _, key := range known {
		m[strings.ReplaceAll(key, ".", "_")] = key
	}
	return m
}

// envToKey converts LINKSHELF_RATE_LIMIT_PREVIEW_LIMIT into a koanf key.
// Keys that contain underscores themselves can only be matched against the
// known set; unknown variables fall back to treating every "_" as a separator.
func envToKey(keys map[string]string, s string) string {
	name := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key, ok := keys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "_", ".")
}

type defaultsProviderStruct struct {
	defaults *Config
}

func defaultsProvider(defaults *Config) *defaultsProviderStruct {
	return &defaultsProviderStruct{defaults: defaults}
}

func (d *defaultsProviderStruct) ReadBytes() ([]byte, error) {
	return nil, nil
}

func (d *defaultsProviderStruct) Read() (map[string]interface{}, error) {
	c := d.defaults
	return map[string]interface{}{
		"server": map[string]interface{}{
			"host":            c.Server.Host,
			"port":            c.Server.Port,
			"public_url":      c.Server.PublicURL,
			"allowed_origins": c.Server.AllowedOrigins,
			"tls": map[string]interface{}{
				"mode":      c.Server.TLS.Mode,
				"cert_file": c.Server.TLS.CertFile,
				"key_file":  c.Server.TLS.KeyFile,
				"auto": map[string]interface{}{
					"domain":    c.Server.TLS.Auto.Domain,
					"email":     c.Server.TLS.Auto.Email,
					"cache_dir": c.Server.TLS.Auto.CacheDir,
				},
			},
		},
		"log": map[string]interface{}{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"database": map[string]interface{}{
			"path": c.Database.Path,
		},
		"preview": map[string]interface{}{
			"timeout":                c.Preview.Timeout.String(),
			"oembed_timeout":         c.Preview.OEmbedTimeout.String(),
			"max_body_size":          c.Preview.MaxBodySize,
			"max_redirects":          c.Preview.MaxRedirects,
			"user_agent":             c.Preview.UserAgent,
			"allow_private_networks": c.Preview.AllowPrivateNetworks,
			"platforms":              c.Preview.Platforms,
		},
		"cache": map[string]interface{}{
			"enabled":          c.Cache.Enabled,
			"ttl":              c.Cache.TTL.String(),
			"error_ttl":        c.Cache.ErrorTTL.String(),
			"cleanup_interval": c.Cache.CleanupInterval.String(),
		},
		"batch": map[string]interface{}{
			"max_urls":        c.Batch.MaxURLs,
			"concurrency":     c.Batch.Concurrency,
			"rate_per_second": c.Batch.RatePerSecond,
		},
		"rate_limit": map[string]interface{}{
			"enabled": c.RateLimit.Enabled,
			"preview": map[string]interface{}{
				"limit":  c.RateLimit.Preview.Limit,
				"window": c.RateLimit.Preview.Window.String(),
			},
			"batch": map[string]interface{}{
				"limit":  c.RateLimit.Batch.Limit,
				"window": c.RateLimit.Batch.Window.String(),
			},
		},
		"telemetry": map[string]interface{}{
			"enabled":         c.Telemetry.Enabled,
			"protocol":        c.Telemetry.Protocol,
			"endpoint":        c.Telemetry.Endpoint,
			"service_name":    c.Telemetry.ServiceName,
			"runtime_metrics": c.Telemetry.RuntimeMetrics,
		},
	}, nil
}

func SetupFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("linkshelf", pflag.ContinueOnError)
	flags.String("config", "", "Path to config file")
	flags.String("server.host", "", "Server host")
	flags.Int("server.port", 0, "Server port")
	flags.String("server.public_url", "", "Public URL")
	flags.StringSlice("server.allowed_origins", nil, "Allowed CORS origins")
	flags.String("server.tls.mode", "", "TLS mode: off, auto, or manual")
	flags.String("server.tls.cert_file", "", "TLS certificate file (manual mode)")
	flags.String("server.tls.key_file", "", "TLS key file (manual mode)")
	flags.String("server.tls.auto.domain", "", "Domain for automatic TLS (auto mode)")
	flags.String("server.tls.auto.email", "", "Contact email for Let's Encrypt (auto mode)")
	flags.String("server.tls.auto.cache_dir", "", "Certificate cache directory (auto mode)")
	flags.String("log.level", "", "Log level: debug, info, warn, or error")
	flags.String("log.format", "", "Log format: text or json")
	flags.String("database.path", "", "Database path, or :memory: for a non-durable cache")
	flags.Duration("preview.timeout", 0, "Timeout for fetching a page")
	flags.Int64("preview.max_body_size", 0, "Max bytes read from a fetched page")
	flags.Bool("preview.allow_private_networks", false, "Allow fetching private and loopback addresses")
	flags.StringSlice("preview.platforms", nil, "Platform fast paths to enable (youtube, vimeo, twitter)")
	flags.Bool("cache.enabled", false, "Enable the preview cache")
	flags.Bool("telemetry.enabled", false, "Enable OpenTelemetry export")
	flags.String("telemetry.endpoint", "", "OTLP collector endpoint URL")
	return flags
}
