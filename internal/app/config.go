package app

import (
	"errors"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	SQLAPIBaseURL       string        `envconfig:"SQLAPI_BASE_URL" required:"true"`
	SQLAPIToken         string        `envconfig:"SQLAPI_TOKEN"`
	SQLAPIDatabaseID    string        `envconfig:"SQLAPI_DATABASE_ID" required:"true"`
	SQLAPITimeout       time.Duration `envconfig:"SQLAPI_TIMEOUT" default:"30s"`
	SQLAPIExecutePath   string        `envconfig:"SQLAPI_EXECUTE_PATH" default:"/api/DataSnapshot/ExecuteSqlQueries"`
	SQLAPISavePath      string        `envconfig:"SQLAPI_SAVE_PATH" default:"/api/DataSnapshot/SaveData"`
	SQLAPIHierarchyPath string        `envconfig:"SQLAPI_HIERARCHY_PATH" default:"/api/EntitySetup/Hierarchy"`

	RedisAddr        string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	LookupCacheTTL   time.Duration `envconfig:"LOOKUP_CACHE_TTL" default:"10m"`
	LookupWarmupCron string        `envconfig:"LOOKUP_WARMUP_CRON" default:"@every 1h"`

	PGDSN string `envconfig:"PG_DSN"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.SQLAPIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("SQLAPI_BASE_URL must be an absolute URL")
	}
	if c.SQLAPIDatabaseID == "" {
		return errors.New("SQLAPI_DATABASE_ID must be provided")
	}
	if c.AppRateLimit <= 0 {
		return errors.New("APP_RATE_LIMIT must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// AuditEnabled reports whether a Postgres audit journal is configured.
func (c *Config) AuditEnabled() bool {
	return c != nil && c.PGDSN != ""
}

// SQLAPI returns the remote API client configuration.
func (c *Config) SQLAPI() sqlapi.Config {
	return sqlapi.Config{
		BaseURL:       c.SQLAPIBaseURL,
		Token:         c.SQLAPIToken,
		DatabaseID:    c.SQLAPIDatabaseID,
		Timeout:       c.SQLAPITimeout,
		ExecutePath:   c.SQLAPIExecutePath,
		SavePath:      c.SQLAPISavePath,
		HierarchyPath: c.SQLAPIHierarchyPath,
	}
}
