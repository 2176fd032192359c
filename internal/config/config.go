// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
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
	JWT       JWTConfig       `koanf:"jwt"`
	Password  PasswordConfig  `koanf:"password"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	NATS      NATSConfig      `koanf:"nats"`
	Storage   StorageConfig   `koanf:"storage"`
	AI        AIConfig        `koanf:"ai"`
	Mail      MailConfig      `koanf:"mail"`
	Invite    InviteConfig    `koanf:"invite"`
	Cache     CacheConfig     `koanf:"cache"`
	Billing   BillingConfig   `koanf:"billing"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath     string        `koanf:"private_key_path"`
	PublicKeyPath      string        `koanf:"public_key_path"`
	AccessTokenExpire  time.Duration `koanf:"access_token_expire"`
	RefreshTokenExpire time.Duration `koanf:"refresh_token_expire"`
	Issuer             string        `koanf:"issuer"`
	Audience           string        `koanf:"audience"`
}

// PasswordConfig holds argon2id cost settings. Raising them upgrades
// stored hashes on the next successful login.
type PasswordConfig struct {
	MemoryKiB uint32 `koanf:"memory_kib"`
	Time      uint32 `koanf:"time"`
	Threads   uint8  `koanf:"threads"`
}

type RateLimitConfig struct {
	Requests     int           `koanf:"requests"`
	Window       time.Duration `koanf:"window"`
	Burst        int           `koanf:"burst"`
	AuthRequests int           `koanf:"auth_requests"`
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

type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

type StorageConfig struct {
	Enabled        bool          `koanf:"enabled"`
	Endpoint       string        `koanf:"endpoint"`
	Region         string        `koanf:"region"`
	Bucket         string        `koanf:"bucket"`
	AccessKey      string        `koanf:"access_key"`
	SecretKey      string        `koanf:"secret_key"`
	UsePathStyle   bool          `koanf:"use_path_style"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
	PresignExpiry  time.Duration `koanf:"presign_expiry"`
}

type AIConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

type MailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	From     string `koanf:"from"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type InviteConfig struct {
	TTL       time.Duration `koanf:"ttl"`
	AcceptURL string        `koanf:"accept_url"`
}

type CacheConfig struct {
	MaxCostBytes int64         `koanf:"max_cost_bytes"`
	PlanTTL      time.Duration `koanf:"plan_ttl"`
}

type BillingConfig struct {
	TrialDays int `koanf:"trial_days"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
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

	loaded := &Config{}
	if err := k.Unmarshal("", loaded); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(loaded); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return loaded, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "dentflow",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.auto_migrate":       true,
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire":  "15m",
		"jwt.refresh_token_expire": "168h",
		"jwt.issuer":               "dentflow",
		"jwt.audience":             "dentflow-api",
		"jwt.private_key_path":     "keys/private.pem",
		"jwt.public_key_path":      "keys/public.pem",

		"password.memory_kib": 64 * 1024,
		"password.time":       1,
		"password.threads":    4,

		"rate_limit.requests":      100,
		"rate_limit.window":        "1m",
		"rate_limit.burst":         20,
		"rate_limit.auth_requests": 10,

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
			"X-Organization-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "dentflow",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"nats.subject_prefix": "notifications",

		"storage.enabled":          false,
		"storage.region":           "us-east-1",
		"storage.use_path_style":   true,
		"storage.max_upload_bytes": 20 << 20,
		"storage.presign_expiry":   "15m",

		"ai.base_url": "https://api.openai.com",
		"ai.model":    "gpt-4o-mini",
		"ai.timeout":  "60s",

		"mail.port": 587,
		"mail.from": "no-reply@dentflow.local",

		"invite.ttl":        "168h",
		"invite.accept_url": "http://localhost:3000/auth/callback",

		"cache.max_cost_bytes": 1 << 20,
		"cache.plan_ttl":       "10m",

		"billing.trial_days": 14,
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
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"JWT_PRIVATE_KEY_PATH":        "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":         "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":     "jwt.access_token_expire",
	"JWT_REFRESH_TOKEN_EXPIRE":    "jwt.refresh_token_expire",
	"JWT_ISSUER":                  "jwt.issuer",
	"JWT_AUDIENCE":                "jwt.audience",
	"PASSWORD_MEMORY_KIB":         "password.memory_kib",
	"PASSWORD_TIME":               "password.time",
	"PASSWORD_THREADS":            "password.threads",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"RATE_LIMIT_AUTH_REQUESTS":    "rate_limit.auth_requests",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"AUTO_MIGRATE":                "database.auto_migrate",
	"METRICS_ENABLED":             "metrics.enabled",
	"NATS_URL":                    "nats.url",
	"STORAGE_ENABLED":             "storage.enabled",
	"STORAGE_ENDPOINT":            "storage.endpoint",
	"STORAGE_REGION":              "storage.region",
	"STORAGE_BUCKET":              "storage.bucket",
	"STORAGE_ACCESS_KEY":          "storage.access_key",
	"STORAGE_SECRET_KEY":          "storage.secret_key",
	"AI_BASE_URL":                 "ai.base_url",
	"AI_API_KEY":                  "ai.api_key",
	"OPENAI_API_KEY":              "ai.api_key",
	"AI_MODEL":                    "ai.model",
	"SMTP_HOST":                   "mail.host",
	"SMTP_PORT":                   "mail.port",
	"SMTP_FROM":                   "mail.from",
	"SMTP_USERNAME":               "mail.username",
	"SMTP_PASSWORD":               "mail.password",
	"INVITE_TTL":                  "invite.ttl",
	"INVITE_ACCEPT_URL":           "invite.accept_url",
	"BILLING_TRIAL_DAYS":          "billing.trial_days",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.AuthRequests <= 0 {
		return fmt.Errorf("rate_limit: requests and auth_requests must be positive")
	}

	if c.Password.MemoryKiB < 8*1024 || c.Password.Time == 0 || c.Password.Threads == 0 {
		return fmt.Errorf("password: memory_kib must be at least 8192 and time, threads positive")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required when storage is enabled")
	}

	if c.Invite.TTL <= 0 {
		return fmt.Errorf("invite.ttl must be positive")
	}

	if c.Billing.TrialDays < 0 {
		return fmt.Errorf("billing.trial_days must not be negative")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (m *MailConfig) Enabled() bool {
	return m.Host != ""
}

func (a *AIConfig) Enabled() bool {
	return a.APIKey != ""
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
