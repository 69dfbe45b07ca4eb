package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultServerAddress, cfg.Server.Address)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, DefaultDBPort, cfg.Database.Port)
	assert.Equal(t, DefaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, DefaultRedisPrefix, cfg.Redis.Prefix)
	assert.Equal(t, DefaultCrawlMaxPages, cfg.Crawler.MaxPages)
	assert.Equal(t, DefaultCrawlParallelism, cfg.Crawler.Parallelism)
	assert.Equal(t, DefaultPageSpeedEndpoint, cfg.PageSpeed.Endpoint)
	assert.Equal(t, DefaultPageSpeedTimeout, cfg.PageSpeed.Timeout)
	assert.Equal(t, DefaultWorkerPoolSize, cfg.Worker.PoolSize)
	assert.Equal(t, DefaultJobTimeout, cfg.Audit.JobTimeout)
	assert.Equal(t, DefaultRuleConcurrency, cfg.Audit.RuleConcurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  address: ":9090"
database:
  host: db.internal
  dbname: audits
redis:
  addr: redis.internal:6379
  prefix: audits
crawler:
  max_pages: 25
  delay: 250ms
pagespeed:
  timeout: 30s
audit:
  job_timeout: 5m
  rule_concurrency: 8
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "audits", cfg.Database.DBName)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, "audits", cfg.Redis.Prefix)
	assert.Equal(t, 25, cfg.Crawler.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawler.Delay)
	assert.Equal(t, 30*time.Second, cfg.PageSpeed.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Audit.JobTimeout)
	assert.Equal(t, 8, cfg.Audit.RuleConcurrency)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	content := `
server:
  address: ":9090"
crawler:
  max_pages: 25
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("CRAWL_MAX_PAGES", "10")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, 10, cfg.Crawler.MaxPages)
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	content := `
crawler:
  max_pages: -1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_pages must be positive")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Crawler:   CrawlerConfig{MaxPages: 50, Parallelism: 4},
			Worker:    WorkerConfig{PoolSize: 4},
			Audit:     AuditConfig{JobTimeout: time.Minute, RuleConcurrency: 4},
			PageSpeed: PageSpeedConfig{Timeout: time.Minute},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Crawler.Parallelism = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Worker.PoolSize = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Audit.JobTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.PageSpeed.Timeout = 0
	assert.Error(t, cfg.Validate())
}
