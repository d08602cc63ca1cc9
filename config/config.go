package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Gemini    GeminiConfig
	Retry     RetryConfig
	Stores    []string
	Pipeline  PipelineConfig
	Database  DatabaseConfig
	Archive   ArchiveConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GeminiConfig holds Gemini API configuration. APIKey may be empty; AI-backed
// operations then fail while list CRUD keeps working.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Temperature       float64       `mapstructure:"temperature"`
	TopK              int           `mapstructure:"top_k"`
	TopP              float64       `mapstructure:"top_p"`
	MaxOutputTokens   int           `mapstructure:"max_output_tokens"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// RetryConfig holds the model call retry policy
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

// PipelineConfig holds the default lists used by the restock pipeline
type PipelineConfig struct {
	FallbackItems   []string `mapstructure:"fallback_items"`
	TargetInventory []string `mapstructure:"target_inventory"`
	// PriceSearchOnly sends the price stage with the search tool but without
	// a response schema, for models that refuse the two together.
	PriceSearchOnly bool `mapstructure:"price_search_only"`
}

// DatabaseConfig holds persistent store configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "memory" or "postgres"
	URL    string `mapstructure:"url"`
}

// ArchiveConfig holds the uploaded-image archive configuration
type ArchiveConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	Region        string `mapstructure:"region"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute per client IP
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/stockbox/")

	// Environment variable settings: STOCKBOX_GEMINI_API_KEY -> gemini.api_key
	v.SetEnvPrefix("STOCKBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", "90s")
	v.SetDefault("gemini.temperature", 0.4)
	v.SetDefault("gemini.top_k", 32)
	v.SetDefault("gemini.top_p", 1.0)
	v.SetDefault("gemini.max_output_tokens", 2048)
	v.SetDefault("gemini.requests_per_minute", 60)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "2s")

	v.SetDefault("stores", []string{"Walmart", "Food Lion", "Harris Teeter"})

	// Pipeline defaults
	v.SetDefault("pipeline.fallback_items", []string{"milk 1 gallon", "large eggs dozen", "basmati rice 5kg"})
	v.SetDefault("pipeline.target_inventory", []string{
		"spaghetti 5 containers", "ground coffee 2 cans", "green beans 3 cans",
		"olive oil 2 bottles", "baked beans 3 cans", "pasta sauce 1 jar",
		"tuna 6 cans", "milk 3 gallons",
	})
	v.SetDefault("pipeline.price_search_only", false)

	// Database defaults
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.url", "")

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.public_base_url", "")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Driver != "memory" && config.Database.Driver != "postgres" {
		return fmt.Errorf("database driver must be 'memory' or 'postgres', got: %s", config.Database.Driver)
	}

	if config.Database.Driver == "postgres" && config.Database.URL == "" {
		return fmt.Errorf("database URL is required when driver is 'postgres'")
	}

	if config.Archive.Enabled && config.Archive.Bucket == "" {
		return fmt.Errorf("archive bucket is required when the archive is enabled")
	}

	if config.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got: %d", config.Retry.MaxAttempts)
	}

	if config.Gemini.Timeout <= 0 {
		return fmt.Errorf("gemini timeout must be positive, got: %s", config.Gemini.Timeout)
	}

	if config.Gemini.Temperature < 0 || config.Gemini.Temperature > 2 {
		return fmt.Errorf("gemini temperature must be between 0 and 2, got: %g", config.Gemini.Temperature)
	}

	if len(config.Stores) == 0 {
		return fmt.Errorf("at least one store is required")
	}

	return nil
}
