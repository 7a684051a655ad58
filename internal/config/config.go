package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key looked up in the
// environment, e.g. EMAIL_CLASSIFIER_CLASSIFIER_PROVIDER.
const EnvPrefix = "EMAIL_CLASSIFIER"

// envAliases binds configuration keys to the plain variable names people
// already export for these services.
var envAliases = map[string]string{
	"imap.username":         "GMAIL_ADDRESS",
	"imap.password":         "GMAIL_APP_PASSWORD",
	"huggingface.api_token": "HF_API_TOKEN",
	"openai.api_key":        "OPENAI_API_KEY",
	"gemini.api_key":        "GEMINI_API_KEY",
}

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance from the first config.yaml found
// in the standard locations, the environment and an optional .env file.
func New() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-classifier/")
	v.AddConfigPath("$HOME/.email-classifier")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit file
func NewFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
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

func newViper() *viper.Viper {
	v := NewEmptyViper()

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range envAliases {
		// BindEnv only fails when called without a key
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), name)
	}

	return v
}

// loadDotEnv reads .env from the working directory, if present. Variables
// already set in the environment win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Classifier defaults
	v.SetDefault("classifier.provider", "huggingface")
	v.SetDefault("classifier.categories", []string{})

	// IMAP defaults
	v.SetDefault("imap.address", "imap.gmail.com:993")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.use_keyring", true)
	v.SetDefault("imap.folder", "INBOX")
	v.SetDefault("imap.max_fetch", 20)
	v.SetDefault("imap.timeout", "30s")

	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.postfix_address", "127.0.0.1:10026")
	v.SetDefault("server.hostname", "localhost")
	v.SetDefault("server.max_message_bytes", 25*1024*1024)
	v.SetDefault("server.trusted_domains", []string{})
	v.SetDefault("server.metrics_address", "")
	v.SetDefault("server.headers.category", "X-Email-Category")
	v.SetDefault("server.headers.confidence", "X-Email-Category-Confidence")
	v.SetDefault("server.headers.scores", "X-Email-Category-Scores")
	v.SetDefault("server.headers.id", "X-Email-Classifier-ID")
	v.SetDefault("server.headers.error", "X-Email-Classifier-Error")

	// Hugging Face defaults
	v.SetDefault("huggingface.api_token", "")
	v.SetDefault("huggingface.endpoint", "https://api-inference.huggingface.co/models")
	v.SetDefault("huggingface.model", "facebook/bart-large-mnli")
	v.SetDefault("huggingface.timeout", "60s")
	v.SetDefault("huggingface.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/classifier_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/email_classifier")

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

// Set overrides a value, typically from a command-line flag
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
