package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"
)

const FileName = "injectdb.config"

var SupportedProviders = []string{"postgresql", "postgres", "mysql", "sqlite", "sqlite3"}

type Config struct {
	Server   Server   `json:"server" mapstructure:"server"`
	Database Database `json:"database" mapstructure:"database"`
	Import   Import   `json:"import" mapstructure:"import"`
	Session  Session  `json:"session" mapstructure:"session"`
}

type Server struct {
	Host        string `json:"host" mapstructure:"host"`
	Port        int    `json:"port" mapstructure:"port"`
	OpenBrowser bool   `json:"open_browser" mapstructure:"open_browser"`
}

// Database holds the fallback provider for URLs without a scheme and the
// environment variable that pre-fills the destination URL.
type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Import struct {
	IDColumn    string `json:"id_column" mapstructure:"id_column"`
	MaxUploadMB int    `json:"max_upload_mb" mapstructure:"max_upload_mb"`
	PreviewRows int    `json:"preview_rows" mapstructure:"preview_rows"`
}

type Session struct {
	IdleTimeout time.Duration `json:"idle_timeout" mapstructure:"idle_timeout"`
}

func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5555
	}
	if !v.IsSet("server.open_browser") {
		cfg.Server.OpenBrowser = true
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Import.IDColumn == "" {
		cfg.Import.IDColumn = "id"
	}
	if cfg.Import.MaxUploadMB == 0 {
		cfg.Import.MaxUploadMB = 50
	}
	if !v.IsSet("import.preview_rows") {
		cfg.Import.PreviewRows = 5
	}
	if !v.IsSet("session.idle_timeout") {
		cfg.Session.IdleTimeout = 30 * time.Minute
	}

	return &cfg, nil
}

// GetDatabaseURL reads the destination URL from the configured environment variable.
func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(SupportedProviders, c.Database.Provider) {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, SupportedProviders)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Import.MaxUploadMB < 1 {
		return fmt.Errorf("import.max_upload_mb must be positive")
	}

	if c.Import.PreviewRows < 0 {
		return fmt.Errorf("import.preview_rows cannot be negative")
	}

	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("session.idle_timeout cannot be negative")
	}

	return nil
}

// MaxUploadBytes is the request body limit for uploads.
func (c *Config) MaxUploadBytes() int {
	return c.Import.MaxUploadMB * 1024 * 1024
}
