package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	Redis          RedisConfig       `toml:"redis"`
	Scheduling     SchedulingConfig  `toml:"scheduling"`
	RateLimit      RateLimitConfig   `toml:"rate_limit"`
	CatalogService IntegrationConfig `toml:"catalog_service"`
	StaffService   IntegrationConfig `toml:"staff_service"`
	ClientService  IntegrationConfig `toml:"client_service"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки PostgreSQL
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
	TxTimeoutMs     int    `toml:"tx_timeout_ms"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RedisConfig настройки распределённой блокировки (таймауты в миллисекундах)
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	LockTTLMs  int    `toml:"lock_ttl_ms"`
	LockWaitMs int    `toml:"lock_wait_ms"`
}

// SchedulingConfig параметры генерации слотов
type SchedulingConfig struct {
	SlotGranularityMinutes int    `toml:"slot_granularity_minutes"`
	MaxRangeDays           int    `toml:"max_range_days"`
	Timezone               string `toml:"timezone"` // IANA имя, пусто для локальной зоны процесса
}

// Location возвращает часовой пояс салона, в котором считается текущее время
func (s SchedulingConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduling.timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// RateLimitConfig ограничение частоты запросов на изменяющие маршруты
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TrustProxy        bool    `toml:"trust_proxy"` // брать адрес клиента из X-Forwarded-For
}

// IntegrationConfig адрес внешнего сервиса (таймаут в секундах)
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// Load читает TOML файл, подгружает .env (если есть) и применяет переопределения из окружения
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrideString("DB_HOST", &c.Database.Host)
	overrideString("DB_USER", &c.Database.User)
	overrideString("DB_PASSWORD", &c.Database.Password)
	overrideString("DB_NAME", &c.Database.DBName)
	overrideString("REDIS_ADDR", &c.Redis.Addr)
	overrideString("REDIS_USERNAME", &c.Redis.Username)
	overrideString("REDIS_PASSWORD", &c.Redis.Password)
	overrideString("LOG_LEVEL", &c.Logs.Level)
	overrideString("CATALOG_SERVICE_URL", &c.CatalogService.URL)
	overrideString("STAFF_SERVICE_URL", &c.StaffService.URL)
	overrideString("CLIENT_SERVICE_URL", &c.ClientService.URL)

	if err := overrideInt("DB_PORT", &c.Database.Port); err != nil {
		return err
	}
	return overrideInt("HTTP_PORT", &c.Server.HTTPPort)
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	setDefault(&c.Database.TxTimeoutMs, 5000)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "scheduling-service"
	}

	setDefault(&c.Redis.LockTTLMs, 5000)
	setDefault(&c.Redis.LockWaitMs, 2000)

	setDefault(&c.Scheduling.SlotGranularityMinutes, domain.DefaultSlotGranularityMinutes)
	setDefault(&c.Scheduling.MaxRangeDays, domain.DefaultMaxRangeDays)

	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 10
	}
	setDefault(&c.RateLimit.Burst, 20)

	setDefault(&c.CatalogService.Timeout, 5)
	setDefault(&c.StaffService.Timeout, 5)
	setDefault(&c.ClientService.Timeout, 5)
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.DBName == "" {
		errs = append(errs, errors.New("database.dbname is required"))
	}
	g := c.Scheduling.SlotGranularityMinutes
	if g < domain.MinSlotGranularityMinutes || g > domain.MaxSlotGranularityMinutes {
		errs = append(errs, fmt.Errorf("scheduling.slot_granularity_minutes must be in [%d, %d]: %d",
			domain.MinSlotGranularityMinutes, domain.MaxSlotGranularityMinutes, g))
	}
	if c.Scheduling.MaxRangeDays <= 0 {
		errs = append(errs, fmt.Errorf("scheduling.max_range_days must be positive: %d", c.Scheduling.MaxRangeDays))
	}
	if _, err := c.Scheduling.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_second must not be negative"))
	}
	for name, integration := range map[string]IntegrationConfig{
		"catalog_service": c.CatalogService,
		"staff_service":   c.StaffService,
		"client_service":  c.ClientService,
	} {
		if integration.URL == "" {
			errs = append(errs, fmt.Errorf("%s.url is required", name))
		}
	}

	return errors.Join(errs...)
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDefault(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}
