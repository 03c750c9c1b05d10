package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverBigQuery = "bigquery"
)

// Classifier providers.
const (
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config holds application configuration.
type Config struct {
	Log        LogConfig
	Store      StoreConfig
	Classifier ClassifierConfig
	Storage    StorageConfig
	BankFeed   BankFeedConfig `mapstructure:"bankfeed"`
	Server     ServerConfig
	Import     ImportConfig
}

type LogConfig struct {
	Level string
}

// StoreConfig selects the category and transaction store.
type StoreConfig struct {
	Driver     string
	SQLitePath string `mapstructure:"sqlite_path"`
	ProjectID  string `mapstructure:"project_id"`
	Dataset    string
}

// ClassifierConfig holds AI backend settings.
type ClassifierConfig struct {
	Provider    string
	APIKeyEnv   string `mapstructure:"api_key_env"`
	APIKey      string `mapstructure:"api_key"`
	Model       string
	BatchSize   int `mapstructure:"batch_size"`
	Concurrency int
	Timeout     time.Duration
}

// StorageConfig names the bucket that stages async uploads.
type StorageConfig struct {
	Bucket string
}

// BankFeedConfig holds the aggregation API settings and the accounts the
// worker syncs.
type BankFeedConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TokenEnv  string `mapstructure:"token_env"`
	Token     string
	Accounts  []string
	Schedule  string
	PageLimit int `mapstructure:"page_limit"`
}

type ServerConfig struct {
	Port int
}

type ImportConfig struct {
	UserID string `mapstructure:"user_id"`
}

// ResolveAPIKey returns the configured key, falling back to the environment
// variable named by APIKeyEnv.
func (c ClassifierConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		return os.Getenv(c.APIKeyEnv)
	}
	return ""
}

// ResolveToken returns the configured bearer token, falling back to the
// environment variable named by TokenEnv.
func (c BankFeedConfig) ResolveToken() string {
	if c.Token != "" {
		return c.Token
	}
	if c.TokenEnv != "" {
		return os.Getenv(c.TokenEnv)
	}
	return ""
}

// Validate checks the settings that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverBigQuery:
		if c.Store.ProjectID == "" || c.Store.Dataset == "" {
			return fmt.Errorf("store.project_id and store.dataset are required for the bigquery driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Classifier.Provider {
	case ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("unknown classifier.provider %q", c.Classifier.Provider)
	}

	if c.Classifier.BatchSize < 1 || c.Classifier.BatchSize > 50 {
		return fmt.Errorf("classifier.batch_size must be between 1 and 50, got %d", c.Classifier.BatchSize)
	}
	return nil
}

// Load reads configuration from file and env. Env var overrides use prefix
// STATEMENT_IMPORTER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("log.level", "info")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", filepath.Join(os.Getenv("HOME"), ".local", "share", "statement-importer", "statements.db"))
	v.SetDefault("store.project_id", "")
	v.SetDefault("store.dataset", "finance")
	v.SetDefault("classifier.provider", ProviderGemini)
	v.SetDefault("classifier.api_key_env", "GEMINI_API_KEY")
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.model", "gemini-2.5-flash")
	v.SetDefault("classifier.batch_size", 50)
	v.SetDefault("classifier.concurrency", 4)
	v.SetDefault("classifier.timeout", "60s")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("bankfeed.base_url", "https://api.enablebanking.com")
	v.SetDefault("bankfeed.token_env", "BANKFEED_TOKEN")
	v.SetDefault("bankfeed.token", "")
	v.SetDefault("bankfeed.accounts", []string{})
	v.SetDefault("bankfeed.schedule", "0 6 * * *")
	v.SetDefault("bankfeed.page_limit", 100)
	v.SetDefault("server.port", 8080)
	v.SetDefault("import.user_id", "default")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("STATEMENT_IMPORTER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "statement-importer"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("STATEMENT_IMPORTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// A missing default file is fine; an explicit or broken one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgPath != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
