package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

const (
	// EnvConfigPath переменная окружения с путем к файлу конфигурации
	EnvConfigPath = "CONFIG_PATH"
	// EnvDBPassword переменная окружения с паролем базы данных
	EnvDBPassword = "DB_PASSWORD"

	DefaultPath = "config.toml"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config конфигурация сервиса
type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Storage       StorageConfig       `toml:"storage"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Directory     DirectoryConfig     `toml:"directory"`
	Notifications NotificationsConfig `toml:"notifications"`
	RateLimit     RateLimitConfig     `toml:"rate_limit"`
	Scheduling    SchedulingConfig    `toml:"scheduling"`
}

// ServerConfig параметры HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig параметры подключения к PostgreSQL
type DatabaseConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	User                string `toml:"user"`
	Password            string `toml:"password"`
	DBName              string `toml:"dbname"`
	SSLMode             string `toml:"sslmode"`
	MaxOpenConns        int    `toml:"max_open_conns"`
	MaxIdleConns        int    `toml:"max_idle_conns"`
	ConnMaxLifetime     int    `toml:"conn_max_lifetime"` // секунды
	SerializableRetries int    `toml:"serializable_retries"`
}

// DSN строка подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// StorageConfig выбор хранилища: postgres или memory
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// LogsConfig параметры логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // пусто - только stdout
}

// MetricsConfig параметры prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// DirectoryConfig справочник ресурсов и пользователей
// Если выключен, все ресурсы и пользователи считаются существующими
type DirectoryConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// NotificationsConfig отправка доменных событий
// Без брокеров события только пишутся в лог
type NotificationsConfig struct {
	Brokers      []string `toml:"brokers"`
	TopicPrefix  string   `toml:"topic_prefix"`
	BufferSize   int      `toml:"buffer_size"`
	WriteTimeout int      `toml:"write_timeout"` // секунды
}

// RateLimitConfig ограничение изменяющих запросов через Redis
type RateLimitConfig struct {
	Enabled       bool   `toml:"enabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Limit         int    `toml:"limit"`
	WindowSeconds int    `toml:"window_seconds"`
	Prefix        string `toml:"prefix"`
	FailOpen      bool   `toml:"fail_open"`
}

// Window длительность окна лимита
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// SchedulingConfig параметры планирования
type SchedulingConfig struct {
	DefaultSlotIntervalMinutes int `toml:"default_slot_interval_minutes"`
	ReferenceMaxAttempts       int `toml:"reference_max_attempts"`
}

// Load читает конфигурацию из TOML файла
// Путь из CONFIG_PATH имеет приоритет, пароль БД можно передать через DB_PASSWORD
func Load(path string) (*Config, error) {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		path = envPath
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if password := os.Getenv(EnvDBPassword); password != "" {
		cfg.Database.Password = password
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:                "localhost",
			Port:                5432,
			SSLMode:             "disable",
			MaxOpenConns:        25,
			MaxIdleConns:        5,
			ConnMaxLifetime:     300,
			SerializableRetries: 3,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "scheduling-service",
		},
		Directory: DirectoryConfig{Timeout: 5},
		Notifications: NotificationsConfig{
			TopicPrefix:  "scheduling.",
			BufferSize:   256,
			WriteTimeout: 5,
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     "localhost:6379",
			Limit:         60,
			WindowSeconds: 60,
			Prefix:        "scheduling:rl",
			FailOpen:      true,
		},
		Scheduling: SchedulingConfig{
			DefaultSlotIntervalMinutes: domain.DefaultSlotIntervalMinutes,
			ReferenceMaxAttempts:       domain.DefaultReferenceMaxAttempts,
		},
	}
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be within 1..65535")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			problems = append(problems, "database.host, database.user and database.dbname are required for postgres storage")
		}
		if c.Database.SerializableRetries < 0 {
			problems = append(problems, "database.serializable_retries must not be negative")
		}
	case StorageDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.driver must be %q or %q", StorageDriverPostgres, StorageDriverMemory))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}

	if c.Directory.Enabled && c.Directory.URL == "" {
		problems = append(problems, "directory.url is required when directory is enabled")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RedisAddr == "" || c.RateLimit.Limit <= 0 || c.RateLimit.WindowSeconds <= 0) {
		problems = append(problems, "rate_limit requires redis_addr, positive limit and window_seconds")
	}

	if c.Scheduling.DefaultSlotIntervalMinutes <= 0 || c.Scheduling.DefaultSlotIntervalMinutes > domain.MaxSlotIntervalMinutes {
		problems = append(problems, fmt.Sprintf("scheduling.default_slot_interval_minutes must be within 1..%d", domain.MaxSlotIntervalMinutes))
	}
	if c.Scheduling.ReferenceMaxAttempts <= 0 {
		problems = append(problems, "scheduling.reference_max_attempts must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
