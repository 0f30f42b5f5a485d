package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance from the default search paths
func New() (*Config, error) {
	return Load("")
}

// Load creates a configuration instance. When path is empty the default
// search paths are used and a missing config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/phishguard/")
		v.AddConfigPath("$HOME/.phishguard")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Session defaults
	v.SetDefault("session.user_email", "")

	// Classifier defaults
	v.SetDefault("classifier.provider", "http")
	v.SetDefault("classifier.probability_policy", "clamp")

	// Remote prediction API defaults
	v.SetDefault("http_classifier.base_url", "http://localhost:5000")
	v.SetDefault("http_classifier.timeout", "30s")
	v.SetDefault("http_classifier.url_payload", "url")
	v.SetDefault("http_classifier.max_response_bytes", 1<<20)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.max_tokens", 200)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("openai.top_p", 1.0)
	v.SetDefault("openai.max_payload_size", 8192)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 200)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.top_p", 1.0)
	v.SetDefault("gemini.max_payload_size", 8192)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 200)
	v.SetDefault("bedrock.temperature", 0.0)
	v.SetDefault("bedrock.top_p", 1.0)
	v.SetDefault("bedrock.max_payload_size", 8192)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/var/lib/phishguard/verdicts.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/phishguard")

	// Server defaults
	v.SetDefault("server.http.enabled", true)
	v.SetDefault("server.http.listen_address", "127.0.0.1:8080")
	v.SetDefault("server.http.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.smtp.enabled", false)
	v.SetDefault("server.smtp.listen_address", "127.0.0.1:10025")
	v.SetDefault("server.smtp.domain", "localhost")
	v.SetDefault("server.smtp.forward_address", "")
	v.SetDefault("server.smtp.block_phishing", false)
	v.SetDefault("server.smtp.headers.verdict", "X-PhishGuard-Verdict")
	v.SetDefault("server.smtp.headers.probability", "X-PhishGuard-Probability")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
