package config

import (
	"time"

	"github.com/mikey/phishguard/internal/core"
)

// ClassifierConfig represents the classifier selection
type ClassifierConfig struct {
	Provider          string
	ProbabilityPolicy string
}

// HTTPClassifierConfig represents the configuration for the remote prediction API
type HTTPClassifierConfig struct {
	BaseURL          string
	Timeout          time.Duration
	URLPayload       string
	MaxResponseBytes int64
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey         string
	ModelName      string
	BaseURL        string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxPayloadSize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey         string
	ModelName      string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxPayloadSize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region         string
	ModelID        string
	MaxTokens      int
	Temperature    float32
	TopP           float32
	MaxPayloadSize int
}

// HTTPServerConfig represents the dashboard API listener
type HTTPServerConfig struct {
	Enabled        bool
	ListenAddress  string
	AllowedOrigins []string
}

// SMTPServerConfig represents the SMTP intake listener
type SMTPServerConfig struct {
	Enabled           bool
	ListenAddress     string
	Domain            string
	ForwardAddress    string
	BlockPhishing     bool
	VerdictHeader     string
	ProbabilityHeader string
}

// GetSession returns the session the core is constructed with
func (c *Config) GetSession() core.Session {
	return core.Session{
		UserEmail: c.GetString("session.user_email"),
	}
}

// GetClassifier returns the classifier selection
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider:          c.GetString("classifier.provider"),
		ProbabilityPolicy: c.GetString("classifier.probability_policy"),
	}
}

// GetHTTPClassifier returns the remote prediction API configuration
func (c *Config) GetHTTPClassifier() (HTTPClassifierConfig, error) {
	timeout, err := c.GetDuration("http_classifier.timeout")
	if err != nil {
		return HTTPClassifierConfig{}, err
	}
	return HTTPClassifierConfig{
		BaseURL:          c.GetString("http_classifier.base_url"),
		Timeout:          timeout,
		URLPayload:       c.GetString("http_classifier.url_payload"),
		MaxResponseBytes: c.GetInt64("http_classifier.max_response_bytes"),
	}, nil
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:         c.GetString("openai.api_key"),
		ModelName:      c.GetString("openai.model_name"),
		BaseURL:        c.GetString("openai.base_url"),
		MaxTokens:      c.GetInt("openai.max_tokens"),
		Temperature:    float32(c.GetFloat64("openai.temperature")),
		TopP:           float32(c.GetFloat64("openai.top_p")),
		MaxPayloadSize: c.GetInt("openai.max_payload_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:         c.GetString("gemini.api_key"),
		ModelName:      c.GetString("gemini.model_name"),
		MaxTokens:      c.GetInt("gemini.max_tokens"),
		Temperature:    float32(c.GetFloat64("gemini.temperature")),
		TopP:           float32(c.GetFloat64("gemini.top_p")),
		MaxPayloadSize: c.GetInt("gemini.max_payload_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:         c.GetString("bedrock.region"),
		ModelID:        c.GetString("bedrock.model_id"),
		MaxTokens:      c.GetInt("bedrock.max_tokens"),
		Temperature:    float32(c.GetFloat64("bedrock.temperature")),
		TopP:           float32(c.GetFloat64("bedrock.top_p")),
		MaxPayloadSize: c.GetInt("bedrock.max_payload_size"),
	}
}

// GetHTTPServer returns the dashboard API configuration
func (c *Config) GetHTTPServer() HTTPServerConfig {
	return HTTPServerConfig{
		Enabled:        c.GetBool("server.http.enabled"),
		ListenAddress:  c.GetString("server.http.listen_address"),
		AllowedOrigins: c.GetStringSlice("server.http.allowed_origins"),
	}
}

// GetSMTPServer returns the SMTP intake configuration
func (c *Config) GetSMTPServer() SMTPServerConfig {
	return SMTPServerConfig{
		Enabled:           c.GetBool("server.smtp.enabled"),
		ListenAddress:     c.GetString("server.smtp.listen_address"),
		Domain:            c.GetString("server.smtp.domain"),
		ForwardAddress:    c.GetString("server.smtp.forward_address"),
		BlockPhishing:     c.GetBool("server.smtp.block_phishing"),
		VerdictHeader:     c.GetString("server.smtp.headers.verdict"),
		ProbabilityHeader: c.GetString("server.smtp.headers.probability"),
	}
}

// GetControllerOptions returns the submission controller tunables
func (c *Config) GetControllerOptions() (core.ControllerOptions, error) {
	policy, err := core.ParseProbabilityPolicy(c.GetString("classifier.probability_policy"))
	if err != nil {
		return core.ControllerOptions{}, err
	}
	opts := core.ControllerOptions{
		Policy:       policy,
		CacheEnabled: c.GetBool("cache.enabled"),
	}
	if opts.CacheEnabled {
		ttl, err := c.GetDuration("cache.ttl")
		if err != nil {
			return core.ControllerOptions{}, err
		}
		opts.CacheTTL = ttl
	}
	return opts, nil
}
