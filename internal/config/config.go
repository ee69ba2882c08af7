// Package config loads the service configuration from a file and the
// environment. The resulting *Config is passed explicitly to constructors.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Chains    []ChainConfig   `mapstructure:"chains"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Prices    PricesConfig    `mapstructure:"prices"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Collector CollectorConfig `mapstructure:"collector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	ServeWWW    bool     `mapstructure:"serve_www"`
	WWWDir      string   `mapstructure:"www_dir"`
}

type MongoConfig struct {
	// URI, when set, replaces the address/credential/TLS fields.
	URI               string        `mapstructure:"uri"`
	Address           string        `mapstructure:"address"`
	Port              int           `mapstructure:"port"`
	HasCredential     bool          `mapstructure:"has_credential"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	HasTLS            bool          `mapstructure:"has_tls"`
	CAFile            string        `mapstructure:"ca_file"`
	CertKeyFile       string        `mapstructure:"cert_key_file"`
	AllowInvalidCerts bool          `mapstructure:"allow_invalid_certs"`
	AppName           string        `mapstructure:"app_name"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout      time.Duration `mapstructure:"query_timeout"`
	// ActionsDatabase holds nomination records, ref keys and newsletter.
	ActionsDatabase string `mapstructure:"actions_database"`
}

// ChainConfig binds a chain alias used in URLs to its record database.
type ChainConfig struct {
	Alias    string `mapstructure:"alias"` // DOT, KSM, WND
	Name     string `mapstructure:"name"`  // Polkadot, Kusama, Westend
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, or "" when redis is disabled.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type PricesConfig struct {
	Backend       string        `mapstructure:"backend"` // mongo, postgres, clickhouse
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	ClickhouseDSN string        `mapstructure:"clickhouse_dsn"`
	CacheSize     int           `mapstructure:"cache_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	Migrate       bool          `mapstructure:"migrate"`
}

type PollerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type CollectorConfig struct {
	Dir        string        `mapstructure:"dir"`
	Command    []string      `mapstructure:"command"`
	Timeout    time.Duration `mapstructure:"timeout"`
	ReportsDir string        `mapstructure:"reports_dir"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Price backends.
const (
	BackendMongo      = "mongo"
	BackendPostgres   = "postgres"
	BackendClickhouse = "clickhouse"
)

// Defaults returns a complete configuration for a local deployment.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        3030,
			CORSOrigins: []string{"http://localhost:3000"},
			WWWDir:      "./www",
		},
		Mongo: MongoConfig{
			Address:         "127.0.0.1",
			Port:            27017,
			AppName:         "cryptolab",
			ConnectTimeout:  10 * time.Second,
			QueryTimeout:    30 * time.Second,
			ActionsDatabase: "cryptolab",
		},
		Chains: []ChainConfig{
			{Alias: "DOT", Name: "Polkadot", Database: "polkadot"},
			{Alias: "KSM", Name: "Kusama", Database: "kusama"},
		},
		Redis: RedisConfig{
			Host: "127.0.0.1",
			Port: 6379,
		},
		Prices: PricesConfig{
			Backend:   BackendMongo,
			CacheSize: 4096,
			CacheTTL:  time.Hour,
			Migrate:   true,
		},
		Poller: PollerConfig{
			Interval: 600 * time.Second,
		},
		Collector: CollectorConfig{
			Dir:     "./staking-rewards-collector",
			Command: []string{"node", "src/index.js"},
			Timeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
	}
}

// legacyEnv maps config keys to the bare environment names older
// deployments use. The automatic SECTION_KEY name stays bound too.
var legacyEnv = map[string][]string{
	"server.port":          {"PORT"},
	"server.serve_www":     {"SERVE_WWW"},
	"server.cors_origins":  {"CORS_URL"},
	"redis.host":           {"REDIS"},
	"redis.port":           {"REDIS_PORT"},
	"collector.dir":        {"STAKING_REWARDS_COLLECTOR_DIR"},
	"mongo.address":        {"DB_ADDRESS", "MONGO_IP_ADDR"},
	"mongo.port":           {"DB_PORT"},
	"mongo.has_credential": {"DB_HAS_CREDENTIAL"},
	"mongo.username":       {"DB_USERNAME"},
	"mongo.password":       {"DB_PASSWORD"},
	"mongo.has_tls":        {"DB_HAS_TLS"},
	"mongo.ca_file":        {"DB_CA_FILE"},
	"mongo.cert_key_file":  {"DB_CERT_KEY_FILE"},
}

// chainDBEnv overrides the database of a configured chain by its name.
var chainDBEnv = map[string]string{
	"polkadot": "POLKADOT_DB_NAME",
	"kusama":   "KUSAMA_DB_NAME",
	"westend":  "WESTEND_DB_NAME",
}

// Load reads configuration from path on top of Defaults, then applies
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		auto := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, auto}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	for chain, name := range chainDBEnv {
		if err := v.BindEnv("chain_db."+chain, name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Env values arrive as a single string; accept a JSON array or a comma list.
	if raw, ok := v.Get("server.cors_origins").(string); ok {
		origins, err := parseList(raw)
		if err != nil {
			return nil, fmt.Errorf("parse cors origins: %w", err)
		}
		cfg.Server.CORSOrigins = origins
	}

	for i := range cfg.Chains {
		if db := v.GetString("chain_db." + strings.ToLower(cfg.Chains[i].Name)); db != "" {
			cfg.Chains[i].Database = db
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.serve_www", d.Server.ServeWWW)
	v.SetDefault("server.www_dir", d.Server.WWWDir)

	v.SetDefault("mongo.uri", d.Mongo.URI)
	v.SetDefault("mongo.address", d.Mongo.Address)
	v.SetDefault("mongo.port", d.Mongo.Port)
	v.SetDefault("mongo.has_credential", d.Mongo.HasCredential)
	v.SetDefault("mongo.username", d.Mongo.Username)
	v.SetDefault("mongo.password", d.Mongo.Password)
	v.SetDefault("mongo.has_tls", d.Mongo.HasTLS)
	v.SetDefault("mongo.ca_file", d.Mongo.CAFile)
	v.SetDefault("mongo.cert_key_file", d.Mongo.CertKeyFile)
	v.SetDefault("mongo.allow_invalid_certs", d.Mongo.AllowInvalidCerts)
	v.SetDefault("mongo.app_name", d.Mongo.AppName)
	v.SetDefault("mongo.connect_timeout", d.Mongo.ConnectTimeout)
	v.SetDefault("mongo.query_timeout", d.Mongo.QueryTimeout)
	v.SetDefault("mongo.actions_database", d.Mongo.ActionsDatabase)

	chains := make([]map[string]any, 0, len(d.Chains))
	for _, c := range d.Chains {
		chains = append(chains, map[string]any{"alias": c.Alias, "name": c.Name, "database": c.Database})
	}
	v.SetDefault("chains", chains)

	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)

	v.SetDefault("prices.backend", d.Prices.Backend)
	v.SetDefault("prices.postgres_dsn", d.Prices.PostgresDSN)
	v.SetDefault("prices.clickhouse_dsn", d.Prices.ClickhouseDSN)
	v.SetDefault("prices.cache_size", d.Prices.CacheSize)
	v.SetDefault("prices.cache_ttl", d.Prices.CacheTTL)
	v.SetDefault("prices.migrate", d.Prices.Migrate)

	v.SetDefault("poller.interval", d.Poller.Interval)

	v.SetDefault("collector.dir", d.Collector.Dir)
	v.SetDefault("collector.command", d.Collector.Command)
	v.SetDefault("collector.timeout", d.Collector.Timeout)
	v.SetDefault("collector.reports_dir", d.Collector.ReportsDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if len(c.Chains) == 0 {
		errs = append(errs, errors.New("at least one chain must be configured"))
	}
	seen := make(map[string]bool, len(c.Chains))
	for _, ch := range c.Chains {
		alias := strings.ToUpper(ch.Alias)
		switch {
		case alias == "":
			errs = append(errs, errors.New("chain alias must not be empty"))
		case seen[alias]:
			errs = append(errs, fmt.Errorf("duplicate chain alias %s", alias))
		}
		seen[alias] = true
		if ch.Database == "" {
			errs = append(errs, fmt.Errorf("chain %s has no database", ch.Alias))
		}
	}
	if c.Prices.CacheSize <= 0 {
		errs = append(errs, errors.New("prices.cache_size must be positive"))
	}
	if c.Prices.CacheTTL <= 0 {
		errs = append(errs, errors.New("prices.cache_ttl must be positive"))
	}
	switch c.Prices.Backend {
	case BackendMongo:
	case BackendPostgres:
		if c.Prices.PostgresDSN == "" {
			errs = append(errs, errors.New("prices.postgres_dsn required for postgres backend"))
		}
	case BackendClickhouse:
		if c.Prices.ClickhouseDSN == "" {
			errs = append(errs, errors.New("prices.clickhouse_dsn required for clickhouse backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown prices.backend %q", c.Prices.Backend))
	}
	if c.Poller.Interval <= 0 {
		errs = append(errs, errors.New("poller.interval must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Chain returns the chain configured under alias, case-insensitively.
func (c *Config) Chain(alias string) (ChainConfig, bool) {
	for _, ch := range c.Chains {
		if strings.EqualFold(ch.Alias, alias) {
			return ch, true
		}
	}
	return ChainConfig{}, false
}
