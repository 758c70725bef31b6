package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Logs     LogsConfig     `toml:"logs"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Max      MaxConfig      `toml:"max"`
	Polling  PollingConfig  `toml:"polling"`
	Webhook  WebhookConfig  `toml:"webhook"`
}

// LogsConfig содержит настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// MetricsConfig содержит настройки метрик Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// MaxConfig содержит настройки клиента MAX Bot API
type MaxConfig struct {
	BotToken  string `toml:"bot_token"`
	APIURL    string `toml:"api_url"`
	Timeout   int    `toml:"timeout"`    // в секундах
	RateLimit int    `toml:"rate_limit"` // запросов в секунду
	PollGrace int    `toml:"poll_grace"` // запас таймаута long polling, в секундах
}

// PollingConfig содержит настройки long polling
type PollingConfig struct {
	Timeout     int      `toml:"timeout"`     // серверный таймаут GET /updates, в секундах
	Limit       int      `toml:"limit"`       // размер пачки обновлений
	RetryDelay  int      `toml:"retry_delay"` // пауза после ошибки, в секундах
	UpdateTypes []string `toml:"update_types"`
}

// WebhookConfig содержит настройки webhook. Пустой URL включает long polling
type WebhookConfig struct {
	URL              string `toml:"url"`
	WatchdogInterval int    `toml:"watchdog_interval"` // в секундах, 0 отключает проверку
}

// DSN формирует строку подключения к PostgreSQL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (m MaxConfig) TimeoutDuration() time.Duration {
	return time.Duration(m.Timeout) * time.Second
}

func (m MaxConfig) PollGraceDuration() time.Duration {
	return time.Duration(m.PollGrace) * time.Second
}

func (p PollingConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

func (p PollingConfig) RetryDelayDuration() time.Duration {
	return time.Duration(p.RetryDelay) * time.Second
}

func (w WebhookConfig) WatchdogDuration() time.Duration {
	return time.Duration(w.WatchdogInterval) * time.Second
}

// Enabled сообщает, запускается ли сервис в режиме webhook
func (w WebhookConfig) Enabled() bool {
	return w.URL != ""
}

// Load загружает конфигурацию из TOML файла с поддержкой переменных окружения
func Load(path string) (*Config, error) {
	var cfg Config

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML config: %w", err)
	}

	overrideFromEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// overrideFromEnv переопределяет значения из переменных окружения
func overrideFromEnv(cfg *Config) {
	// Database
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	// Server
	setInt(&cfg.Server.HTTPPort, "HTTP_PORT")

	// Logs
	setString(&cfg.Logs.Level, "LOG_LEVEL")
	setString(&cfg.Logs.File, "LOG_FILE")

	// Metrics
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	setString(&cfg.Metrics.Path, "METRICS_PATH")
	setString(&cfg.Metrics.ServiceName, "METRICS_SERVICE_NAME")

	// MAX
	setString(&cfg.Max.BotToken, "MAX_BOT_TOKEN")
	setString(&cfg.Max.APIURL, "MAX_API_URL")
	setInt(&cfg.Max.Timeout, "MAX_API_TIMEOUT")
	setInt(&cfg.Max.RateLimit, "MAX_RATE_LIMIT")

	// Polling
	setInt(&cfg.Polling.Timeout, "POLLING_TIMEOUT")
	setInt(&cfg.Polling.Limit, "POLLING_LIMIT")
	setInt(&cfg.Polling.RetryDelay, "POLLING_RETRY_DELAY")
	if v := os.Getenv("POLLING_UPDATE_TYPES"); v != "" {
		cfg.Polling.UpdateTypes = splitList(v)
	}

	// Webhook
	setString(&cfg.Webhook.URL, "WEBHOOK_URL")
	setInt(&cfg.Webhook.WatchdogInterval, "WEBHOOK_WATCHDOG_INTERVAL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setInt игнорирует значения, которые не разбираются как число
func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// validate проверяет корректность конфигурации и проставляет значения по умолчанию
func validate(cfg *Config) error {
	// Database validation
	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if cfg.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	// Server validation
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}

	// Logs defaults
	if cfg.Logs.Level == "" {
		cfg.Logs.Level = "info"
	}
	if cfg.Logs.File == "" {
		cfg.Logs.File = "./logs/app.log"
	}

	// Server defaults
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 45
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}

	// Database pool defaults
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}

	// Metrics defaults
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = "maxgateway"
	}

	// MAX validation and defaults
	if strings.TrimSpace(cfg.Max.BotToken) == "" {
		return fmt.Errorf("max bot token is required")
	}
	if cfg.Max.APIURL == "" {
		cfg.Max.APIURL = "https://platform-api.max.ru"
	}
	if _, err := url.ParseRequestURI(cfg.Max.APIURL); err != nil {
		return fmt.Errorf("max api_url is invalid: %w", err)
	}
	if cfg.Max.Timeout <= 0 {
		cfg.Max.Timeout = 30
	}
	if cfg.Max.RateLimit <= 0 {
		cfg.Max.RateLimit = 30
	}
	if cfg.Max.PollGrace <= 0 {
		cfg.Max.PollGrace = 10
	}

	// Polling defaults
	if cfg.Polling.Timeout <= 0 {
		cfg.Polling.Timeout = 30
	}
	if cfg.Polling.Limit < 0 || cfg.Polling.Limit > 1000 {
		return fmt.Errorf("polling limit must be between 1 and 1000")
	}
	if cfg.Polling.Limit == 0 {
		cfg.Polling.Limit = 100
	}
	if cfg.Polling.RetryDelay <= 0 {
		cfg.Polling.RetryDelay = 5
	}

	// Webhook validation
	if cfg.Webhook.URL != "" {
		parsed, err := url.Parse(cfg.Webhook.URL)
		if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
			return fmt.Errorf("webhook url must be an absolute https URL")
		}
	}
	if cfg.Webhook.WatchdogInterval < 0 {
		return fmt.Errorf("webhook watchdog_interval must not be negative")
	}

	return nil
}
