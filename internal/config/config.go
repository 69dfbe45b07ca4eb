// Package config provides configuration management for the audit service.
// Values are loaded from a YAML file through Viper, with environment
// variables taking precedence over file keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/rankwell/siteaudit/internal/logger"
)

// Default configuration values.
const (
	DefaultServerAddress = ":8080"

	DefaultDBHost    = "localhost"
	DefaultDBPort    = "5432"
	DefaultDBUser    = "postgres"
	DefaultDBName    = "siteaudit"
	DefaultDBSSLMode = "disable"

	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisPrefix = "siteaudit"

	DefaultCrawlMaxPages    = 50
	DefaultCrawlParallelism = 4
	DefaultCrawlDelay       = 500 * time.Millisecond

	DefaultPageSpeedEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	DefaultPageSpeedTimeout  = 60 * time.Second

	DefaultWorkerPoolSize     = 4
	DefaultWorkerDrainTimeout = 30 * time.Second

	DefaultJobTimeout      = 10 * time.Minute
	DefaultRuleConcurrency = 4
)

// Config represents the application configuration.
type Config struct {
	Logging   logger.Config   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	PageSpeed PageSpeedConfig `yaml:"pagespeed"`
	Worker    WorkerConfig    `yaml:"worker"`
	Audit     AuditConfig     `yaml:"audit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address" env:"SERVER_ADDRESS"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"     env:"DB_HOST"`
	Port     string `yaml:"port"     env:"DB_PORT"`
	User     string `yaml:"user"     env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname"   env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode"  env:"DB_SSLMODE"`
}

// RedisConfig holds Redis connection settings for the job queue and the
// progress channel.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" json:"-"`
	DB       int    `yaml:"db"       env:"REDIS_DB"`
	Prefix   string `yaml:"prefix"   env:"REDIS_PREFIX"`
}

// CrawlerConfig holds crawl-stage settings.
type CrawlerConfig struct {
	MaxPages    int           `yaml:"max_pages"   env:"CRAWL_MAX_PAGES"`
	Parallelism int           `yaml:"parallelism" env:"CRAWL_PARALLELISM"`
	Delay       time.Duration `yaml:"delay"`
	UserAgent   string        `yaml:"user_agent"  env:"CRAWL_USER_AGENT"`
}

// PageSpeedConfig holds performance provider settings.
type PageSpeedConfig struct {
	Endpoint string        `yaml:"endpoint" env:"PAGESPEED_ENDPOINT"`
	APIKey   string        `yaml:"api_key"  env:"PAGESPEED_API_KEY" json:"-"`
	Timeout  time.Duration `yaml:"timeout"`
}

// WorkerConfig holds worker pool settings.
type WorkerConfig struct {
	PoolSize     int           `yaml:"pool_size" env:"WORKER_POOL_SIZE"`
	DrainTimeout time.Duration `yaml:"drain_timeout"`
}

// AuditConfig holds per-job orchestration settings.
type AuditConfig struct {
	JobTimeout      time.Duration `yaml:"job_timeout"`
	RuleConcurrency int           `yaml:"rule_concurrency" env:"RULE_CONCURRENCY"`
}

// Load reads configuration from the given file path (optional) plus the
// environment, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/siteaudit")
		// A missing default config file is fine; env vars and defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Logging: logger.Config{
			Level:       stringValue(v, "LOG_LEVEL", "logging.level", "info"),
			Development: v.GetBool("logging.development"),
		},
		Server: ServerConfig{
			Address: stringValue(v, "SERVER_ADDRESS", "server.address", DefaultServerAddress),
		},
		Database: DatabaseConfig{
			Host:     stringValue(v, "DB_HOST", "database.host", DefaultDBHost),
			Port:     stringValue(v, "DB_PORT", "database.port", DefaultDBPort),
			User:     stringValue(v, "DB_USER", "database.user", DefaultDBUser),
			Password: stringValue(v, "DB_PASSWORD", "database.password", ""),
			DBName:   stringValue(v, "DB_NAME", "database.dbname", DefaultDBName),
			SSLMode:  stringValue(v, "DB_SSLMODE", "database.sslmode", DefaultDBSSLMode),
		},
		Redis: RedisConfig{
			Addr:     stringValue(v, "REDIS_ADDR", "redis.addr", DefaultRedisAddr),
			Password: stringValue(v, "REDIS_PASSWORD", "redis.password", ""),
			DB:       intValue(v, "REDIS_DB", "redis.db", 0),
			Prefix:   stringValue(v, "REDIS_PREFIX", "redis.prefix", DefaultRedisPrefix),
		},
		Crawler: CrawlerConfig{
			MaxPages:    intValue(v, "CRAWL_MAX_PAGES", "crawler.max_pages", DefaultCrawlMaxPages),
			Parallelism: intValue(v, "CRAWL_PARALLELISM", "crawler.parallelism", DefaultCrawlParallelism),
			Delay:       durationValue(v, "crawler.delay", DefaultCrawlDelay),
			UserAgent:   stringValue(v, "CRAWL_USER_AGENT", "crawler.user_agent", ""),
		},
		PageSpeed: PageSpeedConfig{
			Endpoint: stringValue(v, "PAGESPEED_ENDPOINT", "pagespeed.endpoint", DefaultPageSpeedEndpoint),
			APIKey:   stringValue(v, "PAGESPEED_API_KEY", "pagespeed.api_key", ""),
			Timeout:  durationValue(v, "pagespeed.timeout", DefaultPageSpeedTimeout),
		},
		Worker: WorkerConfig{
			PoolSize:     intValue(v, "WORKER_POOL_SIZE", "worker.pool_size", DefaultWorkerPoolSize),
			DrainTimeout: durationValue(v, "worker.drain_timeout", DefaultWorkerDrainTimeout),
		},
		Audit: AuditConfig{
			JobTimeout:      durationValue(v, "audit.job_timeout", DefaultJobTimeout),
			RuleConcurrency: intValue(v, "RULE_CONCURRENCY", "audit.rule_concurrency", DefaultRuleConcurrency),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Crawler.MaxPages <= 0 {
		return errors.New("crawler.max_pages must be positive")
	}
	if c.Crawler.Parallelism <= 0 {
		return errors.New("crawler.parallelism must be positive")
	}
	if c.Worker.PoolSize <= 0 {
		return errors.New("worker.pool_size must be positive")
	}
	if c.Audit.RuleConcurrency <= 0 {
		return errors.New("audit.rule_concurrency must be positive")
	}
	if c.Audit.JobTimeout <= 0 {
		return errors.New("audit.job_timeout must be positive")
	}
	if c.PageSpeed.Timeout <= 0 {
		return errors.New("pagespeed.timeout must be positive")
	}
	return nil
}

// stringValue retrieves a string value from environment or Viper, with a
// default fallback. Environment variables take precedence.
func stringValue(v *viper.Viper, envKey, viperKey, defaultValue string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if val := v.GetString(viperKey); val != "" {
		return val
	}
	return defaultValue
}

// intValue retrieves an int value from environment or Viper, with a
// default fallback.
func intValue(v *viper.Viper, envKey, viperKey string, defaultValue int) int {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	if v.IsSet(viperKey) {
		return v.GetInt(viperKey)
	}
	return defaultValue
}

// durationValue retrieves a duration value from Viper, with a default
// fallback.
func durationValue(v *viper.Viper, viperKey string, defaultValue time.Duration) time.Duration {
	if v.IsSet(viperKey) {
		return v.GetDuration(viperKey)
	}
	return defaultValue
}
