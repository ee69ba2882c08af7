package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults should validate, got %v", err)
	}
	if cfg.Poller.Interval != 600*time.Second {
		t.Errorf("Expected poll interval 600s, got %v", cfg.Poller.Interval)
	}
	if cfg.Mongo.AppName != "cryptolab" {
		t.Errorf("Expected app name 'cryptolab', got '%s'", cfg.Mongo.AppName)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
chains:
  - alias: WND
    name: Westend
    database: westend
prices:
  cache_ttl: 10m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if len(cfg.Chains) != 1 || cfg.Chains[0].Alias != "WND" {
		t.Errorf("Expected only WND chain, got %+v", cfg.Chains)
	}
	if cfg.Prices.CacheTTL != 10*time.Minute {
		t.Errorf("Expected cache ttl 10m, got %v", cfg.Prices.CacheTTL)
	}
	if cfg.Prices.CacheSize != 4096 {
		t.Errorf("Expected default cache size, got %d", cfg.Prices.CacheSize)
	}
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("MONGO_IP_ADDR", "10.0.0.5")
	t.Setenv("DB_HAS_CREDENTIAL", "true")
	t.Setenv("KUSAMA_DB_NAME", "ksm-prod")
	t.Setenv("CORS_URL", `["https://a.io","https://b.io"]`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Expected port 4000, got %d", cfg.Server.Port)
	}
	if cfg.Mongo.Address != "10.0.0.5" {
		t.Errorf("Expected mongo address from MONGO_IP_ADDR, got '%s'", cfg.Mongo.Address)
	}
	if !cfg.Mongo.HasCredential {
		t.Error("Expected has_credential from DB_HAS_CREDENTIAL")
	}
	ksm, ok := cfg.Chain("ksm")
	if !ok || ksm.Database != "ksm-prod" {
		t.Errorf("Expected KSM database 'ksm-prod', got %+v", ksm)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.io" {
		t.Errorf("Unexpected CORS origins: %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_AutomaticEnv(t *testing.T) {
	t.Setenv("PRICES_BACKEND", "postgres")
	t.Setenv("PRICES_POSTGRES_DSN", "postgres://localhost/prices")
	t.Setenv("CORS_URL", "https://a.io, https://b.io")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Prices.Backend != BackendPostgres {
		t.Errorf("Expected postgres backend, got '%s'", cfg.Prices.Backend)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "https://a.io" {
		t.Errorf("Unexpected CORS origins: %v", cfg.Server.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"no chains", func(c *Config) { c.Chains = nil }},
		{"duplicate alias", func(c *Config) { c.Chains = append(c.Chains, ChainConfig{Alias: "dot", Database: "x"}) }},
		{"zero cache", func(c *Config) { c.Prices.CacheSize = 0 }},
		{"postgres without dsn", func(c *Config) { c.Prices.Backend = BackendPostgres }},
		{"unknown backend", func(c *Config) { c.Prices.Backend = "sqlite" }},
		{"zero interval", func(c *Config) { c.Poller.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
