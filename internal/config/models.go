package config

import "time"

// ClassifierConfig selects the zero-shot backend and extra categories
type ClassifierConfig struct {
	Provider   string
	Categories []string
}

// IMAPConfig represents the mailbox connection settings
type IMAPConfig struct {
	Address    string
	Username   string
	Password   string
	UseKeyring bool
	Folder     string
	MaxFetch   int
	Timeout    time.Duration
}

// HeaderNames are the headers the SMTP filter adds to classified mail
type HeaderNames struct {
	Category   string
	Confidence string
	Scores     string
	ID         string
	Error      string
}

// ServerConfig represents the SMTP content filter settings
type ServerConfig struct {
	ListenAddress   string
	PostfixAddress  string
	Hostname        string
	MaxMessageBytes int64
	TrustedDomains  []string
	MetricsAddress  string
	Headers         HeaderNames
}

// HuggingFaceConfig represents the configuration for the Hugging Face Inference API
type HuggingFaceConfig struct {
	APIToken    string
	Endpoint    string
	Model       string
	Timeout     time.Duration
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// CacheConfig represents the inference cache settings
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider:   c.GetString("classifier.provider"),
		Categories: c.GetStringSlice("classifier.categories"),
	}
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() (IMAPConfig, error) {
	timeout, err := c.GetDuration("imap.timeout")
	if err != nil {
		return IMAPConfig{}, err
	}

	return IMAPConfig{
		Address:    c.GetString("imap.address"),
		Username:   c.GetString("imap.username"),
		Password:   c.GetString("imap.password"),
		UseKeyring: c.GetBool("imap.use_keyring"),
		Folder:     c.GetString("imap.folder"),
		MaxFetch:   c.GetInt("imap.max_fetch"),
		Timeout:    timeout,
	}, nil
}

// GetServer returns the SMTP filter configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		PostfixAddress:  c.GetString("server.postfix_address"),
		Hostname:        c.GetString("server.hostname"),
		MaxMessageBytes: int64(c.GetInt("server.max_message_bytes")),
		TrustedDomains:  c.GetStringSlice("server.trusted_domains"),
		MetricsAddress:  c.GetString("server.metrics_address"),
		Headers: HeaderNames{
			Category:   c.GetString("server.headers.category"),
			Confidence: c.GetString("server.headers.confidence"),
			Scores:     c.GetString("server.headers.scores"),
			ID:         c.GetString("server.headers.id"),
			Error:      c.GetString("server.headers.error"),
		},
	}
}

// GetHuggingFace returns the Hugging Face configuration
func (c *Config) GetHuggingFace() (HuggingFaceConfig, error) {
	timeout, err := c.GetDuration("huggingface.timeout")
	if err != nil {
		return HuggingFaceConfig{}, err
	}

	return HuggingFaceConfig{
		APIToken:    c.GetString("huggingface.api_token"),
		Endpoint:    c.GetString("huggingface.endpoint"),
		Model:       c.GetString("huggingface.model"),
		Timeout:     timeout,
		MaxBodySize: c.GetInt("huggingface.max_body_size"),
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}
