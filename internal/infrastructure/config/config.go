package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"tickalert/internal/infrastructure/exchange"
)

// ErrMissingAPIKey 未配置 POLYGON_API_KEY
var ErrMissingAPIKey = errors.New("polygon api key is not set (POLYGON_API_KEY)")

const (
	LifecycleExit      = "exit"
	LifecycleReconnect = "reconnect"
)

type Config struct {
	App struct {
		Name string `toml:"name"`
		Mode string `toml:"mode"` // prod | dev (dev 模式告警打印到终端)
	} `toml:"app"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`

	Polygon struct {
		APIKey            string   `toml:"api_key"`
		RestURL           string   `toml:"rest_url"`
		WsURL             string   `toml:"ws_url"`
		Exchanges         []string `toml:"exchanges"`
		PageLimit         int      `toml:"page_limit"`
		SubscribeChunk    int      `toml:"subscribe_chunk"`
		RequestTimeoutSec int      `toml:"request_timeout_sec"`
		NewsLimit         int      `toml:"news_limit"`
		NewsTimeoutSec    int      `toml:"news_timeout_sec"`
		PingIntervalSec   int      `toml:"ping_interval_sec"`
		ReadTimeoutSec    int      `toml:"read_timeout_sec"`
	} `toml:"polygon"`

	Detector struct {
		ConditionFlag   int   `toml:"condition_flag"`
		MinVolume       int64 `toml:"min_volume"`
		CooldownSeconds int   `toml:"cooldown_seconds"`
	} `toml:"detector"`

	Dispatch struct {
		Workers      int `toml:"workers"`
		QueueSize    int `toml:"queue_size"`
		GraceSeconds int `toml:"grace_seconds"`
		NewsInAlert  int `toml:"news_in_alert"`
	} `toml:"dispatch"`

	Lifecycle struct {
		Mode           string `toml:"mode"` // exit | reconnect
		ExitDelayMs    int    `toml:"exit_delay_ms"`
		InitialDelayMs int    `toml:"initial_delay_ms"`
		MaxDelayMs     int    `toml:"max_delay_ms"`
		MaxRetries     int    `toml:"max_retries"`
	} `toml:"lifecycle"`

	Telegram struct {
		Enabled        bool   `toml:"enabled"`
		Token          string `toml:"token"`
		Welcome        string `toml:"welcome"`
		PollTimeoutSec int    `toml:"poll_timeout_sec"`
	} `toml:"telegram"`

	SQLite struct {
		Enabled bool   `toml:"enabled"`
		Path    string `toml:"path"`
	} `toml:"sqlite"`

	Postgres struct {
		Enabled bool   `toml:"enabled"`
		DSN     string `toml:"dsn"`
	} `toml:"postgres"`

	Redis struct {
		Enabled      bool   `toml:"enabled"`
		Addr         string `toml:"addr"`
		Password     string `toml:"password"`
		DB           int    `toml:"db"`
		Prefix       string `toml:"prefix"`
		AlertStream  string `toml:"alert_stream"`
		AlertChannel string `toml:"alert_channel"`
		StreamMaxLen int64  `toml:"stream_max_len"`
	} `toml:"redis"`

	Kafka struct {
		Enabled bool     `toml:"enabled"`
		Brokers []string `toml:"brokers"`
		Topic   string   `toml:"topic"`
	} `toml:"kafka"`

	HTTP struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"http"`
}

// Load 读取 .env（可选）和 TOML 配置，环境变量覆盖文件中的密钥，然后补默认值并校验。
// path 为空时只使用环境变量和默认值。
func Load(path string) (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	var cfg Config
	if strings.TrimSpace(path) != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv 环境变量优先于配置文件
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("POLYGON_API_KEY")); v != "" {
		cfg.Polygon.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		cfg.Telegram.Token = v
		cfg.Telegram.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.Postgres.DSN = v
		cfg.Postgres.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_ADDR")); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Addr = ":" + v
			cfg.HTTP.Enabled = true
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "tickalert"
	}
	if cfg.App.Mode == "" {
		cfg.App.Mode = "prod"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if len(cfg.Polygon.Exchanges) == 0 {
		cfg.Polygon.Exchanges = []string{"XNAS", "XNYS", "XASE"}
	}
	if cfg.Polygon.PageLimit <= 0 || cfg.Polygon.PageLimit > 1000 {
		cfg.Polygon.PageLimit = 1000
	}
	if cfg.Polygon.SubscribeChunk <= 0 {
		cfg.Polygon.SubscribeChunk = 1000
	}
	if cfg.Polygon.RequestTimeoutSec <= 0 {
		cfg.Polygon.RequestTimeoutSec = 15
	}
	if cfg.Polygon.NewsLimit <= 0 {
		cfg.Polygon.NewsLimit = 3
	}
	if cfg.Polygon.NewsTimeoutSec <= 0 {
		cfg.Polygon.NewsTimeoutSec = 5
	}
	if cfg.Polygon.PingIntervalSec <= 0 {
		cfg.Polygon.PingIntervalSec = 25
	}
	if cfg.Polygon.ReadTimeoutSec <= 0 {
		cfg.Polygon.ReadTimeoutSec = 60
	}

	if cfg.Detector.ConditionFlag == 0 {
		cfg.Detector.ConditionFlag = 2
	}
	if cfg.Detector.MinVolume <= 0 {
		cfg.Detector.MinVolume = 50000
	}

	if cfg.Dispatch.Workers <= 0 {
		cfg.Dispatch.Workers = 8
	}
	if cfg.Dispatch.QueueSize <= 0 {
		cfg.Dispatch.QueueSize = 1024
	}
	if cfg.Dispatch.GraceSeconds <= 0 {
		cfg.Dispatch.GraceSeconds = 10
	}
	if cfg.Dispatch.NewsInAlert <= 0 {
		cfg.Dispatch.NewsInAlert = cfg.Polygon.NewsLimit
	}

	if cfg.Lifecycle.Mode == "" {
		cfg.Lifecycle.Mode = LifecycleExit
	}
	if cfg.Lifecycle.ExitDelayMs <= 0 {
		cfg.Lifecycle.ExitDelayMs = 5000
	}
	if cfg.Lifecycle.InitialDelayMs <= 0 {
		cfg.Lifecycle.InitialDelayMs = 1000
	}
	if cfg.Lifecycle.MaxDelayMs <= 0 {
		cfg.Lifecycle.MaxDelayMs = 30000
	}
	if cfg.Lifecycle.MaxRetries < 0 {
		cfg.Lifecycle.MaxRetries = 0
	}

	if cfg.Telegram.PollTimeoutSec <= 0 {
		cfg.Telegram.PollTimeoutSec = 30
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = "data/tickalert.db"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "tickalert"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "tickalert.alerts"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":3000"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Polygon.APIKey) == "" {
		return ErrMissingAPIKey
	}

	cfg.Polygon.Exchanges = exchange.NormalizeCodes(cfg.Polygon.Exchanges)
	if len(cfg.Polygon.Exchanges) == 0 {
		return errors.New("polygon.exchanges is empty")
	}

	cfg.Lifecycle.Mode = strings.ToLower(strings.TrimSpace(cfg.Lifecycle.Mode))
	if cfg.Lifecycle.Mode != LifecycleExit && cfg.Lifecycle.Mode != LifecycleReconnect {
		return fmt.Errorf("lifecycle.mode must be %q or %q, got %q", LifecycleExit, LifecycleReconnect, cfg.Lifecycle.Mode)
	}
	if cfg.Lifecycle.MaxDelayMs < cfg.Lifecycle.InitialDelayMs {
		return errors.New("lifecycle.max_delay_ms below initial_delay_ms")
	}

	if cfg.Telegram.Enabled && strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram enabled but token empty (TELEGRAM_BOT_TOKEN)")
	}
	if cfg.Postgres.Enabled && strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres enabled but dsn empty (DATABASE_URL)")
	}
	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis enabled but addr empty (REDIS_ADDR)")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka enabled but brokers empty")
	}
	return nil
}

func (c *Config) Dev() bool { return strings.EqualFold(c.App.Mode, "dev") }

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Polygon.RequestTimeoutSec) * time.Second
}

func (c *Config) NewsTimeout() time.Duration {
	return time.Duration(c.Polygon.NewsTimeoutSec) * time.Second
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Detector.CooldownSeconds) * time.Second
}

func (c *Config) Grace() time.Duration {
	return time.Duration(c.Dispatch.GraceSeconds) * time.Second
}
