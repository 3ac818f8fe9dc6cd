// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Identity  IdentityConfig  `koanf:"identity"`
	Payments  PaymentsConfig  `koanf:"payments"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	Debug       bool   `koanf:"debug"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	DrainDelay      time.Duration `koanf:"drain_delay"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
	KeyPrefix    string `koanf:"key_prefix"`
}

// IdentityConfig points at a Keycloak-style realm.
type IdentityConfig struct {
	ServerURL    string        `koanf:"server_url"`
	Realm        string        `koanf:"realm"`
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	RedirectURL  string        `koanf:"redirect_url"`
	JWKSCacheTTL time.Duration `koanf:"jwks_cache_ttl"`
	Timeout      time.Duration `koanf:"timeout"`
}

type PaymentsConfig struct {
	SecretKey        string        `koanf:"secret_key"`
	PublishableKey   string        `koanf:"publishable_key"`
	WebhookSecret    string        `koanf:"webhook_secret"`
	APIVersion       string        `koanf:"api_version"`
	BaseURL          string        `koanf:"base_url"`
	WebhookTolerance time.Duration `koanf:"webhook_tolerance"`
	Timeout          time.Duration `koanf:"timeout"`
	ReturnURL        string        `koanf:"return_url"`
	RefreshURL       string        `koanf:"refresh_url"`

	// PriceIDs maps a plan name to the processor price billed for it.
	PriceIDs map[string]string `koanf:"price_ids"`
}

type AuthConfig struct {
	StateTTL       time.Duration `koanf:"state_ttl"`
	BlacklistTTL   time.Duration `koanf:"blacklist_ttl"`
	WebhookDedupe  time.Duration `koanf:"webhook_dedupe"`
	TenantOverride bool          `koanf:"super_admin_tenant_override"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

var (
	cfg     *Config
	loadErr error
	once    sync.Once
)

// Load reads configuration once per process. Later calls return the first result.
func Load(configPath string) (*Config, error) {
	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Platform Gateway",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",
		"server.drain_delay":      "5s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.key_prefix":     "gateway:",

		"identity.realm":          "master",
		"identity.client_id":      "platform-gateway",
		"identity.jwks_cache_ttl": "15m",
		"identity.timeout":        "10s",

		"payments.base_url":          "https://api.stripe.com",
		"payments.api_version":       "2024-06-20",
		"payments.webhook_tolerance": "5m",
		"payments.timeout":           "15s",

		"auth.state_ttl":                   "10m",
		"auth.blacklist_ttl":               "1h",
		"auth.webhook_dedupe":              "24h",
		"auth.super_admin_tenant_override": true,

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-API-Key",
			"X-Tenant-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "platform-gateway",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"DEBUG":                       "app.debug",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"KEYCLOAK_URL":                "identity.server_url",
	"KEYCLOAK_REALM":              "identity.realm",
	"KEYCLOAK_CLIENT_ID":          "identity.client_id",
	"KEYCLOAK_CLIENT_SECRET":      "identity.client_secret",
	"KEYCLOAK_REDIRECT_URL":       "identity.redirect_url",
	"KEYCLOAK_JWKS_CACHE_TTL":     "identity.jwks_cache_ttl",
	"STRIPE_SECRET_KEY":           "payments.secret_key",
	"STRIPE_PUBLISHABLE_KEY":      "payments.publishable_key",
	"STRIPE_WEBHOOK_SECRET":       "payments.webhook_secret",
	"STRIPE_API_VERSION":          "payments.api_version",
	"STRIPE_BASE_URL":             "payments.base_url",
	"STRIPE_RETURN_URL":           "payments.return_url",
	"STRIPE_REFRESH_URL":          "payments.refresh_url",
	"STRIPE_PRICE_STARTER":        "payments.price_ids.starter",
	"STRIPE_PRICE_PROFESSIONAL":   "payments.price_ids.professional",
	"STRIPE_PRICE_ENTERPRISE":     "payments.price_ids.enterprise",
	"AUTH_STATE_TTL":              "auth.state_ttl",
	"AUTH_BLACKLIST_TTL":          "auth.blacklist_ttl",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return errors.New("REDIS_URL is required")
	}

	if c.Identity.ServerURL == "" {
		return errors.New("KEYCLOAK_URL is required")
	}
	if _, err := url.ParseRequestURI(c.Identity.ServerURL); err != nil {
		return fmt.Errorf("identity.server_url: %w", err)
	}

	if c.Identity.Realm == "" || c.Identity.ClientID == "" {
		return errors.New("identity realm and client id are required")
	}

	if c.Payments.SecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}

	if c.Payments.WebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required")
	}

	if c.Payments.WebhookTolerance <= 0 {
		return errors.New("payments.webhook_tolerance must be positive")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return errors.New(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return errors.New("OTEL_INSECURE must be false in production")
		}
		if c.App.Debug {
			return errors.New("DEBUG must be false in production")
		}
		if strings.HasPrefix(c.Payments.SecretKey, "sk_test_") {
			return errors.New("test payment keys cannot be used in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return errors.New("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return errors.New("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Issuer is the token issuer the realm stamps into every access token.
func (i *IdentityConfig) Issuer() string {
	return strings.TrimRight(i.ServerURL, "/") + "/realms/" + i.Realm
}
