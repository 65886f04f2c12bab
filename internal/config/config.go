package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	DefaultLocale   string        `yaml:"default_locale"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	Issuer     string `yaml:"issuer"`
	CookieName string `yaml:"cookie_name"`
}

type AIConfig struct {
	DefaultProvider string `yaml:"default_provider"` // openai|gemini
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	GeminiModel     string `yaml:"gemini_model"`
	DefaultModel    string `yaml:"default_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type MercadoPagoConfig struct {
	AccessToken string        `yaml:"access_token"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

type PaymentConfig struct {
	MercadoPago MercadoPagoConfig `yaml:"mercadopago"`
}

// PollerConfig controls the payment confirmation flow cadence.
type PollerConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

type SessionsConfig struct {
	RegistrySize int           `yaml:"registry_size"`
	TTL          time.Duration `yaml:"ttl"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"` // unread polling sessions are torn down after this
	LockTTL      time.Duration `yaml:"lock_ttl"`
	RateLimit    int           `yaml:"rate_limit"` // starts per user per window
	RateWindow   time.Duration `yaml:"rate_window"`
	Workers      int           `yaml:"workers"` // concurrent pollers per instance
}

type TelegramSupportConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type SupportConfig struct {
	Telegram TelegramSupportConfig `yaml:"telegram"`
}

type JobsConfig struct {
	Workers           int           `yaml:"workers"`
	QueueSize         int           `yaml:"queue_size"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	MaxRetries        int           `yaml:"max_retries"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	StaleAfter        time.Duration `yaml:"stale_after"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Payment  PaymentConfig  `yaml:"payment"`
	Poller   PollerConfig   `yaml:"poller"`
	Sessions SessionsConfig `yaml:"sessions"`
	Support  SupportConfig  `yaml:"support"`
	Jobs     JobsConfig     `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies .env and environment overrides,
// fills defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse builds a Config from YAML bytes plus the process environment.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.AI.OpenAIKey, "OPENAI_API_KEY")
	setString(&cfg.AI.GeminiKey, "GEMINI_API_KEY")
	setString(&cfg.Payment.MercadoPago.AccessToken, "MERCADOPAGO_ACCESS_TOKEN")
	setString(&cfg.Support.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_SUPPORT_CHAT_ID")); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Support.Telegram.ChatID = id
		}
	}
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.DefaultLocale == "" {
		cfg.HTTP.DefaultLocale = "pt-BR"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "access_token"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "openai"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.MaxPromptTokens <= 0 {
		cfg.AI.MaxPromptTokens = 4000
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 4
	}
	if cfg.Payment.MercadoPago.BaseURL == "" {
		cfg.Payment.MercadoPago.BaseURL = "https://api.mercadopago.com"
	}
	if cfg.Payment.MercadoPago.Timeout <= 0 {
		cfg.Payment.MercadoPago.Timeout = 5 * time.Second
	}
	if cfg.Poller.MaxAttempts <= 0 {
		cfg.Poller.MaxAttempts = 10
	}
	if cfg.Poller.RetryDelay <= 0 {
		cfg.Poller.RetryDelay = 3000 * time.Millisecond
	}
	if cfg.Sessions.RegistrySize <= 0 {
		cfg.Sessions.RegistrySize = 1024
	}
	if cfg.Sessions.TTL <= 0 {
		cfg.Sessions.TTL = 30 * time.Minute
	}
	if cfg.Sessions.IdleTimeout <= 0 {
		// the result page reloads every retry delay; allow two missed reloads
		cfg.Sessions.IdleTimeout = 3 * cfg.Poller.RetryDelay
	}
	if cfg.Sessions.LockTTL <= 0 {
		// long enough for a full poll run plus confirmation
		cfg.Sessions.LockTTL = time.Duration(cfg.Poller.MaxAttempts)*cfg.Poller.RetryDelay + time.Minute
	}
	if cfg.Sessions.RateLimit <= 0 {
		cfg.Sessions.RateLimit = 10
	}
	if cfg.Sessions.RateWindow <= 0 {
		cfg.Sessions.RateWindow = time.Minute
	}
	if cfg.Sessions.Workers <= 0 {
		cfg.Sessions.Workers = 64
	}
	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 4
	}
	if cfg.Jobs.QueueSize <= 0 {
		cfg.Jobs.QueueSize = 64
	}
	if cfg.Jobs.PollInterval <= 0 {
		cfg.Jobs.PollInterval = 2 * time.Second
	}
	if cfg.Jobs.MaxRetries <= 0 {
		cfg.Jobs.MaxRetries = 3
	}
	if cfg.Jobs.ReconcileInterval <= 0 {
		cfg.Jobs.ReconcileInterval = time.Minute
	}
	if cfg.Jobs.StaleAfter <= 0 {
		cfg.Jobs.StaleAfter = 5 * time.Minute
	}
}

// Validate performs the minimal checks needed to boot.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 bytes")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
