package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BotModePolling = "polling"
	BotModeWebhook = "webhook"

	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Env       string          `yaml:"env"`
	Log       LogConfig       `yaml:"log"`
	Bot       BotConfig       `yaml:"bot"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	S3        S3Config        `yaml:"s3"`
	Limits    LimitsConfig    `yaml:"limits"`
	Retention RetentionConfig `yaml:"retention"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type BotConfig struct {
	Token       string `yaml:"token"`
	Mode        string `yaml:"mode"`
	PollTimeout int    `yaml:"poll_timeout"`
	ModeratorID int64  `yaml:"moderator_id"`
	Channel     string `yaml:"channel"`
}

type WebhookConfig struct {
	Addr      string `yaml:"addr"`
	Path      string `yaml:"path"`
	Secret    string `yaml:"secret"`
	PublicURL string `yaml:"public_url"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type LimitsConfig struct {
	ReportsPerHour     int `yaml:"reports_per_hour"`
	ReportsPerDay      int `yaml:"reports_per_day"`
	BroadcastPerSecond int `yaml:"broadcast_per_second"`
}

type RetentionConfig struct {
	Conversation    time.Duration `yaml:"conversation"`
	Pending         time.Duration `yaml:"pending"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

func Default() Config {
	return Config{
		Env: "dev",
		Log: LogConfig{Level: "info"},
		Bot: BotConfig{
			Mode:        BotModePolling,
			PollTimeout: 30,
			ModeratorID: 6899720377,
			Channel:     "@Scammerawarealert",
		},
		Webhook: WebhookConfig{
			Addr: ":8080",
			Path: "/webhook",
		},
		Store: StoreConfig{Driver: StoreRedis},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			DB:     0,
			Prefix: "scamreport:",
		},
		SQLite: SQLiteConfig{Path: "data/scamreport.db"},
		Limits: LimitsConfig{
			ReportsPerHour:     3,
			ReportsPerDay:      10,
			BroadcastPerSecond: 25,
		},
		Retention: RetentionConfig{
			Conversation:    72 * time.Hour,
			Pending:         0,
			CleanupInterval: time.Hour,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal config yaml: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("BOT_MODE"); v != "" {
		cfg.Bot.Mode = v
	}
	if err := overrideInt("BOT_POLL_TIMEOUT", &cfg.Bot.PollTimeout); err != nil {
		return err
	}
	if err := overrideInt64("ADMIN_USER_ID", &cfg.Bot.ModeratorID); err != nil {
		return err
	}
	if err := overrideInt64("MODERATOR_ID", &cfg.Bot.ModeratorID); err != nil {
		return err
	}
	if v := os.Getenv("CHANNEL_ID"); v != "" {
		cfg.Bot.Channel = v
	}

	if v := os.Getenv("WEBHOOK_ADDR"); v != "" {
		cfg.Webhook.Addr = v
	}
	if v := os.Getenv("WEBHOOK_PATH"); v != "" {
		cfg.Webhook.Path = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("WEBHOOK_PUBLIC_URL"); v != "" {
		cfg.Webhook.PublicURL = v
	}

	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if err := overrideInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if v := os.Getenv("REDIS_PREFIX"); v != "" {
		cfg.Redis.Prefix = v
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}

	if v := os.Getenv("S3_ENDPOINT"); v != "" {
		cfg.S3.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.S3.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.S3.SecretKey = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if err := overrideBool("S3_USE_SSL", &cfg.S3.UseSSL); err != nil {
		return err
	}

	if err := overrideInt("REPORTS_PER_HOUR", &cfg.Limits.ReportsPerHour); err != nil {
		return err
	}
	if err := overrideInt("REPORTS_PER_DAY", &cfg.Limits.ReportsPerDay); err != nil {
		return err
	}
	if err := overrideInt("BROADCAST_PER_SECOND", &cfg.Limits.BroadcastPerSecond); err != nil {
		return err
	}

	if err := overrideDuration("RETENTION_CONVERSATION", &cfg.Retention.Conversation); err != nil {
		return err
	}
	if err := overrideDuration("RETENTION_PENDING", &cfg.Retention.Pending); err != nil {
		return err
	}
	if err := overrideDuration("CLEANUP_INTERVAL", &cfg.Retention.CleanupInterval); err != nil {
		return err
	}

	return nil
}

func (c *Config) normalize() {
	c.Bot.Mode = strings.ToLower(strings.TrimSpace(c.Bot.Mode))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Bot.Token = strings.TrimSpace(c.Bot.Token)
	c.Bot.Channel = strings.TrimSpace(c.Bot.Channel)

	path := strings.TrimSpace(c.Webhook.Path)
	if path == "" {
		path = "/webhook"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c.Webhook.Path = path
}

func (c Config) validate() error {
	switch c.Bot.Mode {
	case BotModePolling, BotModeWebhook:
	default:
		return fmt.Errorf("unknown bot mode %q", c.Bot.Mode)
	}

	switch c.Store.Driver {
	case StoreRedis, StorePostgres, StoreSQLite:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Bot.ModeratorID <= 0 {
		return fmt.Errorf("bot.moderator_id must be positive")
	}
	if c.Bot.Channel == "" {
		return fmt.Errorf("bot.channel is required")
	}
	if c.Store.Driver == StorePostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
		return fmt.Errorf("postgres.dsn is required for the postgres store")
	}
	if c.IsProduction() && c.Bot.Token == "" {
		return fmt.Errorf("bot.token is required in production")
	}

	return nil
}

func overrideDuration(key string, target *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s duration: %w", key, err)
	}
	*target = d
	return nil
}

func overrideInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s int: %w", key, err)
	}
	*target = n
	return nil
}

func overrideInt64(key string, target *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("parse %s int64: %w", key, err)
	}
	*target = n
	return nil
}

func overrideBool(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s bool: %w", key, err)
	}
	*target = b
	return nil
}
