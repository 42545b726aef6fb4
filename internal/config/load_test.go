package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Load with no config file; should get defaults and pass validation
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nonexistent.yaml")

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != ":memory:" {
		t.Fatalf("expected default database path ':memory:', got %q", cfg.Database.Path)
	}
	if cfg.Preview.Timeout != 8*time.Second {
		t.Fatalf("expected default preview timeout 8s, got %v", cfg.Preview.Timeout)
	}
	if cfg.Cache.ErrorTTL != 5*time.Minute {
		t.Fatalf("expected default error_ttl 5m, got %v", cfg.Cache.ErrorTTL)
	}
	if cfg.Server.TLS.Mode != "off" {
		t.Fatalf("expected default mode 'off', got %q", cfg.Server.TLS.Mode)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9000
  allowed_origins:
    - https://app.example.com
preview:
  timeout: 3s
  platforms: [youtube]
cache:
  ttl: 12h
log:
  format: json
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("unexpected allowed_origins %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Preview.Timeout != 3*time.Second {
		t.Fatalf("expected timeout 3s, got %v", cfg.Preview.Timeout)
	}
	if len(cfg.Preview.Platforms) != 1 || cfg.Preview.Platforms[0] != "youtube" {
		t.Fatalf("unexpected platforms %v", cfg.Preview.Platforms)
	}
	if cfg.Cache.TTL != 12*time.Hour {
		t.Fatalf("expected ttl 12h, got %v", cfg.Cache.TTL)
	}
	// error_ttl should retain its default since YAML didn't override it
	if cfg.Cache.ErrorTTL != 5*time.Minute {
		t.Fatalf("expected default error_ttl 5m, got %v", cfg.Cache.ErrorTTL)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected format 'json', got %q", cfg.Log.Format)
	}
}

func TestLoad_TLSFromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  tls:
    mode: auto
    auto:
      domain: previews.example.com
      email: admin@example.com
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.TLS.Mode != "auto" {
		t.Fatalf("expected mode 'auto', got %q", cfg.Server.TLS.Mode)
	}
	if cfg.Server.TLS.Auto.Domain != "previews.example.com" {
		t.Fatalf("expected domain 'previews.example.com', got %q", cfg.Server.TLS.Auto.Domain)
	}
	if cfg.Server.TLS.Auto.CacheDir != "./data/certs" {
		t.Fatalf("expected default cache_dir './data/certs', got %q", cfg.Server.TLS.Auto.CacheDir)
	}
}

func TestLoad_InvalidYAMLValue(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(cfgPath, []byte("server:\n  port: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(cfgPath, nil); err == nil {
		t.Fatal("expected validation error for port 0")
	}
}

func TestLoad_EnvSimpleKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nonexistent.yaml")

	t.Setenv("LINKSHELF_SERVER_PORT", "9090")

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_EnvUnderscoreInLeafKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nonexistent.yaml")

	t.Setenv("LINKSHELF_PREVIEW_MAX_BODY_SIZE", "2048")
	t.Setenv("LINKSHELF_PREVIEW_ALLOW_PRIVATE_NETWORKS", "true")

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Preview.MaxBodySize != 2048 {
		t.Fatalf("expected max_body_size 2048, got %d", cfg.Preview.MaxBodySize)
	}
	if !cfg.Preview.AllowPrivateNetworks {
		t.Fatal("expected allow_private_networks to be true")
	}
}

func TestLoad_EnvDeepNestedUnderscore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nonexistent.yaml")

	t.Setenv("LINKSHELF_RATE_LIMIT_PREVIEW_LIMIT", "3")
	t.Setenv("LINKSHELF_SERVER_TLS_AUTO_CACHE_DIR", "/var/lib/linkshelf/certs")

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.RateLimit.Preview.Limit != 3 {
		t.Fatalf("expected preview limit 3, got %d", cfg.RateLimit.Preview.Limit)
	}
	if cfg.Server.TLS.Auto.CacheDir != "/var/lib/linkshelf/certs" {
		t.Fatalf("expected cache_dir override, got %q", cfg.Server.TLS.Auto.CacheDir)
	}
}

func TestLoad_EnvDuration(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nonexistent.yaml")

	t.Setenv("LINKSHELF_CACHE_ERROR_TTL", "90s")

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Cache.ErrorTTL != 90*time.Second {
		t.Fatalf("expected error_ttl 90s, got %v", cfg.Cache.ErrorTTL)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yamlContent := `
batch:
  max_urls: 10
`
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LINKSHELF_BATCH_MAX_URLS", "25")

	cfg, err := Load(cfgPath, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Batch.MaxURLs != 25 {
		t.Fatalf("expected env override max_urls 25, got %d", cfg.Batch.MaxURLs)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("LINKSHELF_SERVER_PORT", "9090")

	flags := SetupFlags()
	if err := flags.Parse([]string{
		"--server.port=7070",
		"--server.tls.mode=manual",
		"--server.tls.cert_file=/tmp/cert.pem",
		"--server.tls.key_file=/tmp/key.pem",
		"--preview.timeout=2s",
	}); err != nil {
		t.Fatal(err)
	}

	// Use a nonexistent config path so only defaults, env and flags apply
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "nonexistent.yaml")

	cfg, err := Load(cfgPath, flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Fatalf("expected flag port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Server.TLS.Mode != "manual" {
		t.Fatalf("expected mode 'manual', got %q", cfg.Server.TLS.Mode)
	}
	if cfg.Server.TLS.CertFile != "/tmp/cert.pem" {
		t.Fatalf("expected cert_file '/tmp/cert.pem', got %q", cfg.Server.TLS.CertFile)
	}
	if cfg.Preview.Timeout != 2*time.Second {
		t.Fatalf("expected timeout 2s, got %v", cfg.Preview.Timeout)
	}
}

func TestLoad_UnchangedFlagsKeepDefaults(t *testing.T) {
	flags := SetupFlags()
	if err := flags.Parse(nil); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.yaml"), flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("expected cache to stay enabled")
	}
}

func TestEnvToKey(t *testing.T) {
	keys := envKeys([]string{"server.port", "rate_limit.batch.window", "preview.user_agent"})

	tests := []struct {
		env  string
		want string
	}{
		{"LINKSHELF_SERVER_PORT", "server.port"},
		{"LINKSHELF_RATE_LIMIT_BATCH_WINDOW", "rate_limit.batch.window"},
		{"LINKSHELF_PREVIEW_USER_AGENT", "preview.user_agent"},
		{"LINKSHELF_UNKNOWN_THING", "unknown.thing"},
	}

	for _, tt := range tests {
		if got := envToKey(keys, tt.env); got != tt.want {
			t.Errorf("envToKey(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
