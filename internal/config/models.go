package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider       string
	Timeout        time.Duration
	RateLimitRPS   int
	RateLimitBurst int
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
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// CacheConfig represents the assessment cache configuration
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisPrefix      string
}

// HTTPConfig represents the HTTP API configuration
type HTTPConfig struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxRequestBytes int64
	MaxContentEcho  int
	RateLimitRPS    int
	RateLimitBurst  int
}

// SMTPConfig represents the Postfix content filter configuration
type SMTPConfig struct {
	ListenAddress  string
	BlockScam      bool
	StatusHeader   string
	ScoreHeader    string
	CategoryHeader string
	ReasonHeader   string
	PostfixAddress string
	PostfixPort    int
	PostfixEnabled bool
	SubjectPrefix  string
	ModifySubject  bool
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() (LLMConfig, error) {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		return LLMConfig{}, fmt.Errorf("invalid llm timeout: %w", err)
	}
	return LLMConfig{
		Provider:       c.GetString("llm.provider"),
		Timeout:        timeout,
		RateLimitRPS:   c.GetInt("llm.rate_limit_rps"),
		RateLimitBurst: c.GetInt("llm.rate_limit_burst"),
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
		BaseURL:     c.GetString("openai.base_url"),
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
		return CacheConfig{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanupFreq, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanupFreq,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		RedisAddr:        c.GetString("cache.redis.addr"),
		RedisPassword:    c.GetString("cache.redis.password"),
		RedisDB:          c.GetInt("cache.redis.db"),
		RedisPrefix:      c.GetString("cache.redis.prefix"),
	}, nil
}

// GetHTTP returns the HTTP API configuration
func (c *Config) GetHTTP() (HTTPConfig, error) {
	readTimeout, err := c.GetDuration("http.read_timeout")
	if err != nil {
		return HTTPConfig{}, fmt.Errorf("invalid http read timeout: %w", err)
	}
	writeTimeout, err := c.GetDuration("http.write_timeout")
	if err != nil {
		return HTTPConfig{}, fmt.Errorf("invalid http write timeout: %w", err)
	}
	shutdownTimeout, err := c.GetDuration("http.shutdown_timeout")
	if err != nil {
		return HTTPConfig{}, fmt.Errorf("invalid http shutdown timeout: %w", err)
	}
	return HTTPConfig{
		ListenAddress:   c.GetString("http.listen_address"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		ShutdownTimeout: shutdownTimeout,
		MaxRequestBytes: c.v.GetInt64("http.max_request_bytes"),
		MaxContentEcho:  c.GetInt("http.max_content_echo"),
		RateLimitRPS:    c.GetInt("http.rate_limit_rps"),
		RateLimitBurst:  c.GetInt("http.rate_limit_burst"),
	}, nil
}

// GetSMTP returns the Postfix content filter configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress:  c.GetString("smtp.listen_address"),
		BlockScam:      c.GetBool("smtp.block_scam"),
		StatusHeader:   c.GetString("smtp.headers.status"),
		ScoreHeader:    c.GetString("smtp.headers.score"),
		CategoryHeader: c.GetString("smtp.headers.category"),
		ReasonHeader:   c.GetString("smtp.headers.reason"),
		PostfixAddress: c.GetString("smtp.postfix.address"),
		PostfixPort:    c.GetInt("smtp.postfix.port"),
		PostfixEnabled: c.GetBool("smtp.postfix.enabled"),
		SubjectPrefix:  c.GetString("smtp.subject_prefix"),
		ModifySubject:  c.GetBool("smtp.modify_subject"),
	}
}
