package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/JustinTDCT/OralVault/internal/settings"
)

// DefaultFile is read when present; its values are overridden by the environment.
const DefaultFile = "oralvault.yaml"

type Config struct {
	Port        int      `yaml:"port"`
	DatabaseURL string   `yaml:"database_url"`
	RedisURL    string   `yaml:"redis_url"`
	CORSOrigins []string `yaml:"cors_origins"`
	MaxUpload   int64    `yaml:"max_upload"`

	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	AdminUser         string        `yaml:"admin_user"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`

	TranslateAPIKey   string  `yaml:"translate_api_key"`
	TranslateModel    string  `yaml:"translate_model"`
	TranslateTarget   string  `yaml:"translate_target"`
	TranslateRate     float64 `yaml:"translate_rate"`
	TranslateMaxChars int     `yaml:"translate_max_chars"`

	RevalidateWebhook string `yaml:"revalidate_webhook"`
	RevalidateSecret  string `yaml:"revalidate_secret"`

	CacheTTL  time.Duration `yaml:"cache_ttl"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
}

func Defaults() *Config {
	return &Config{
		Port:              8080,
		DatabaseURL:       "postgres://oralvault:oralvault@db:5432/oralvault?sslmode=disable",
		MaxUpload:         10 << 20,
		TokenTTL:          24 * time.Hour,
		AdminUser:         "admin",
		TranslateModel:    "gemini-2.5-flash",
		TranslateTarget:   "en",
		TranslateRate:     1,
		TranslateMaxChars: 5000,
		CacheTTL:          5 * time.Minute,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load reads .env (if any), then the YAML file at path (DefaultFile when empty, skipped if
// missing), then the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Defaults()
	if path == "" {
		path = env("OV_CONFIG", DefaultFile)
	}
	if err := c.loadFile(path); err != nil {
		return nil, err
	}
	c.applyEnv()
	return c, c.Validate()
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = envInt("PORT", c.Port)
	c.DatabaseURL = env("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = env("REDIS_URL", c.RedisURL)
	c.CORSOrigins = envList("CORS_ORIGINS", c.CORSOrigins)
	c.MaxUpload = int64(envInt("MAX_UPLOAD_BYTES", int(c.MaxUpload)))
	c.JWTSecret = env("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = envDuration("TOKEN_TTL", c.TokenTTL)
	c.AdminUser = env("ADMIN_USER", c.AdminUser)
	c.AdminPasswordHash = env("ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.TranslateAPIKey = env("GEMINI_API_KEY", c.TranslateAPIKey)
	c.TranslateModel = env("TRANSLATE_MODEL", c.TranslateModel)
	c.TranslateTarget = env("TRANSLATE_TARGET", c.TranslateTarget)
	c.TranslateRate = envFloat("TRANSLATE_RATE", c.TranslateRate)
	c.TranslateMaxChars = envInt("TRANSLATE_MAX_CHARS", c.TranslateMaxChars)
	c.RevalidateWebhook = env("REVALIDATE_WEBHOOK_URL", c.RevalidateWebhook)
	c.RevalidateSecret = env("REVALIDATE_SECRET", c.RevalidateSecret)
	c.CacheTTL = envDuration("CACHE_TTL", c.CacheTTL)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.LogFormat = env("LOG_FORMAT", c.LogFormat)
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("config: invalid port %d", c.Port)
	case c.DatabaseURL == "":
		return errors.New("config: database url is required")
	case c.TranslateRate <= 0:
		return fmt.Errorf("config: translate rate must be positive, got %v", c.TranslateRate)
	case c.LogFormat != "json" && c.LogFormat != "console":
		return fmt.Errorf("config: log format must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// MergeFromDB overlays settings stored in the ajustes table. Unknown keys are ignored and a
// missing table only logs.
func (c *Config) MergeFromDB(ctx context.Context, db *sql.DB, logger *zap.Logger) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM "+settings.Table)
	if err != nil {
		logger.Warn("config: skipping DB merge", zap.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		c.applySetting(key, value, logger)
	}
}

func (c *Config) applySetting(key, value string, logger *zap.Logger) {
	switch key {
	case settings.KeyTranslateModel:
		c.TranslateModel = value
	case settings.KeyTranslateTarget:
		c.TranslateTarget = value
	case settings.KeyTranslateRate:
		if v, err := cast.ToFloat64E(value); err == nil && v > 0 {
			c.TranslateRate = v
			return
		}
		logger.Warn("config: ignoring setting", zap.String("key", key), zap.String("value", value))
	case settings.KeyTranslateMaxChars:
		if v, err := cast.ToIntE(value); err == nil && v > 0 {
			c.TranslateMaxChars = v
			return
		}
		logger.Warn("config: ignoring setting", zap.String("key", key), zap.String("value", value))
	case settings.KeyCacheTTL:
		if v, err := cast.ToDurationE(value); err == nil {
			c.CacheTTL = v
			return
		}
		logger.Warn("config: ignoring setting", zap.String("key", key), zap.String("value", value))
	}
}

func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func (c *Config) TranslationEnabled() bool {
	return c.TranslateAPIKey != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := cast.ToFloat64E(v); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
