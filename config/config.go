package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	PG        PGConfig        `yaml:"pg"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Steam     SteamConfig     `yaml:"steam"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Currency  CurrencyConfig  `yaml:"currency"`
}

type AppConfig struct {
	Name    string `yaml:"name" env:"APP_NAME" validate:"required"`
	Version string `yaml:"version" env:"APP_VERSION"`
	// BaseCurrencyID - валюта, в которой хранятся все цены скинов
	BaseCurrencyID int64 `yaml:"baseCurrencyId" env:"BASE_CURRENCY_ID" validate:"gt=0"`
}

// HTTPConfig - ops сервер (/health, /metrics); пустой порт отключает его
type HTTPConfig struct {
	Port string `yaml:"port" env:"HTTP_PORT"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error disabled"`
	JSON  bool   `yaml:"json" env:"LOG_JSON"`
}

type PGConfig struct {
	PoolMax int    `yaml:"poolMax" env:"PG_POOL_MAX" validate:"gt=0"`
	URL     string `yaml:"url" env:"PG_URL" validate:"required"`
}

// RedisConfig - кеш priceoverview; пустой адрес отключает кеш
type RedisConfig struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" validate:"gte=0"`
	CacheTTL time.Duration `yaml:"cacheTTL" env:"REDIS_CACHE_TTL" validate:"gte=0"`
}

// KafkaConfig - события; без брокеров события не публикуются
type KafkaConfig struct {
	Brokers             []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
	TopicSkinDiscovered string   `yaml:"topicSkinDiscovered" env:"KAFKA_TOPIC_SKIN_DISCOVERED" validate:"required_with=Brokers"`
	TopicGroupValuation string   `yaml:"topicGroupValuation" env:"KAFKA_TOPIC_GROUP_VALUATION" validate:"required_with=Brokers"`
}

type SteamConfig struct {
	BaseURL            string        `yaml:"baseUrl" env:"STEAM_BASE_URL" validate:"required,url"`
	RateLimitPerMinute int           `yaml:"rateLimitPerMinute" env:"STEAM_RATE_LIMIT_PER_MINUTE" validate:"gte=0"`
	Timeout            time.Duration `yaml:"timeout" env:"STEAM_TIMEOUT" validate:"gt=0"`
}

type SchedulerConfig struct {
	CurrencyRefreshCron string        `yaml:"currencyRefreshCron" env:"CURRENCY_REFRESH_CRON" validate:"required"`
	ValuationCron       string        `yaml:"valuationCron" env:"VALUATION_CRON" validate:"required"`
	CatalogSyncInterval time.Duration `yaml:"catalogSyncInterval" env:"CATALOG_SYNC_INTERVAL" validate:"gt=0"`
	Timezone            string        `yaml:"timezone" env:"SCHEDULER_TIMEZONE"`
	RetryCooldown       time.Duration `yaml:"retryCooldown" env:"SCHEDULER_RETRY_COOLDOWN" validate:"gt=0"`
}

type CrawlerConfig struct {
	PageSize         int           `yaml:"pageSize" env:"CRAWLER_PAGE_SIZE" validate:"gt=0"`
	RetryPageSizeMin int           `yaml:"retryPageSizeMin" env:"CRAWLER_RETRY_PAGE_SIZE_MIN" validate:"gt=0"`
	RetryPageSizeMax int           `yaml:"retryPageSizeMax" env:"CRAWLER_RETRY_PAGE_SIZE_MAX" validate:"gtefield=RetryPageSizeMin"`
	RetryRollback    int           `yaml:"retryRollback" env:"CRAWLER_RETRY_ROLLBACK" validate:"gte=0"`
	PageDelayMin     time.Duration `yaml:"pageDelayMin" env:"CRAWLER_PAGE_DELAY_MIN" validate:"gte=0"`
	PageDelayMax     time.Duration `yaml:"pageDelayMax" env:"CRAWLER_PAGE_DELAY_MAX" validate:"gtefield=PageDelayMin"`
	RetryDelayMin    time.Duration `yaml:"retryDelayMin" env:"CRAWLER_RETRY_DELAY_MIN" validate:"gte=0"`
	RetryDelayMax    time.Duration `yaml:"retryDelayMax" env:"CRAWLER_RETRY_DELAY_MAX" validate:"gtefield=RetryDelayMin"`
	KnownHashesSize  int           `yaml:"knownHashesSize" env:"CRAWLER_KNOWN_HASHES_SIZE" validate:"gt=0"`
}

type CurrencyConfig struct {
	RequestDelay      time.Duration `yaml:"requestDelay" env:"CURRENCY_REQUEST_DELAY" validate:"gte=0"`
	ReferenceAttempts int           `yaml:"referenceAttempts" env:"CURRENCY_REFERENCE_ATTEMPTS" validate:"gt=0"`
}

// Default - значения по умолчанию; файл и окружение их перекрывают
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:           "skin-sync",
			BaseCurrencyID: 1,
		},
		HTTP: HTTPConfig{Port: "8081"},
		Log:  LogConfig{Level: "info"},
		PG:   PGConfig{PoolMax: 10},
		Redis: RedisConfig{
			CacheTTL: 2 * time.Minute,
		},
		Kafka: KafkaConfig{
			TopicSkinDiscovered: "skin.discovered",
			TopicGroupValuation: "group.valuation",
		},
		Steam: SteamConfig{
			BaseURL:            "https://steamcommunity.com",
			RateLimitPerMinute: 20,
			Timeout:            30 * time.Second,
		},
		Scheduler: SchedulerConfig{
			CurrencyRefreshCron: "0 3 * * *",
			ValuationCron:       "0 21 * * *",
			CatalogSyncInterval: time.Hour,
			Timezone:            "UTC",
			RetryCooldown:       30 * time.Minute,
		},
		Crawler: CrawlerConfig{
			PageSize:         100,
			RetryPageSizeMin: 20,
			RetryPageSizeMax: 99,
			RetryRollback:    0,
			PageDelayMin:     10 * time.Second,
			PageDelayMax:     15 * time.Second,
			RetryDelayMin:    100 * time.Second,
			RetryDelayMax:    150 * time.Second,
			KnownHashesSize:  50000,
		},
		Currency: CurrencyConfig{
			RequestDelay:      3 * time.Second,
			ReferenceAttempts: 3,
		},
	}
}

// LoadConfig - умолчания, затем YAML файл (если задан), затем переменные окружения
func LoadConfig(filename string) (*Config, error) {
	return load(filename, env.ToMap(os.Environ()))
}

func load(filename string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(filename) != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := cron.ParseStandard(c.Scheduler.CurrencyRefreshCron); err != nil {
		return fmt.Errorf("invalid CURRENCY_REFRESH_CRON %q: %w", c.Scheduler.CurrencyRefreshCron, err)
	}

	if _, err := cron.ParseStandard(c.Scheduler.ValuationCron); err != nil {
		return fmt.Errorf("invalid VALUATION_CRON %q: %w", c.Scheduler.ValuationCron, err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location - часовой пояс cron триггеров
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}

	return loc, nil
}

// KafkaEnabled - настроены ли брокеры
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// RedisEnabled - настроен ли кеш
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
