package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Session store backends
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// Agent backends
const (
	AgentBackendFoundry = "foundry"
	AgentBackendLLM     = "llm"
)

// Config holds all configuration for the chat gateway
type Config struct {
	// HTTP configuration
	HTTPPort   int    `env:"HTTP_PORT" envDefault:"5000"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8082"`
	StaticDir  string `env:"STATIC_DIR" envDefault:"static"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	// Session configuration
	SessionStore  string        `env:"SESSION_STORE" envDefault:"redis"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"chat_session"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Turn events are appended to this stream; empty disables publishing
	EventStream string `env:"EVENT_STREAM" envDefault:"chat.turns"`

	// Agent configuration
	AgentBackend      string        `env:"AGENT_BACKEND" envDefault:"foundry"`
	AgentEndpoint     string        `env:"AGENT_ENDPOINT"`
	AgentID           string        `env:"AGENT_ID"`
	AgentToken        string        `env:"AGENT_TOKEN"`
	AgentAPIVersion   string        `env:"AGENT_API_VERSION" envDefault:"v1"`
	AgentPollInterval time.Duration `env:"AGENT_POLL_INTERVAL" envDefault:"500ms"`
	AgentTimeout      time.Duration `env:"AGENT_TIMEOUT" envDefault:"60s"`

	// LLM configuration (AGENT_BACKEND=llm)
	LLMProvider     string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey       string `env:"LLM_API_KEY"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMMaxTokens    int    `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	LLMHistoryLimit int    `env:"LLM_HISTORY_LIMIT" envDefault:"20"`

	// Knowledge base (Azure AI Search)
	SearchEndpoint   string        `env:"SEARCH_ENDPOINT"`
	SearchIndexName  string        `env:"SEARCH_INDEX_NAME"`
	SearchAPIKey     string        `env:"SEARCH_API_KEY"`
	SearchAPIVersion string        `env:"SEARCH_API_VERSION" envDefault:"2024-07-01"`
	SearchTimeout    time.Duration `env:"SEARCH_TIMEOUT" envDefault:"10s"`

	// Speech service
	SpeechKey     string        `env:"SPEECH_KEY"`
	SpeechRegion  string        `env:"SPEECH_REGION"`
	SpeechVoice        string        `env:"SPEECH_VOICE" envDefault:"de-AT-IngridNeural"`
	SpeechOutputFormat string        `env:"SPEECH_OUTPUT_FORMAT" envDefault:"audio-24khz-48kbitrate-mono-mp3"`
	SpeechTimeout      time.Duration `env:"SPEECH_TIMEOUT" envDefault:"15s"`

	// Routing overrides
	LookupRule             string `env:"LOOKUP_RULE"`
	PromptLookupTemplate   string `env:"PROMPT_LOOKUP_TEMPLATE"`
	PromptFreeformTemplate string `env:"PROMPT_FREEFORM_TEMPLATE"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration. Missing provider credentials are not
// errors: the affected feature reports itself as not configured at runtime.
func (c *Config) Validate() error {
	if err := validatePort("HTTP_PORT", c.HTTPPort); err != nil {
		return err
	}

	if err := validatePort("HEALTH_PORT", c.HealthPort); err != nil {
		return err
	}

	if c.HTTPPort == c.HealthPort {
		return fmt.Errorf("HTTP_PORT and HEALTH_PORT must differ")
	}

	switch c.SessionStore {
	case SessionStoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	case SessionStoreMemory:
	default:
		return fmt.Errorf("SESSION_STORE must be one of: redis, memory")
	}

	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	switch c.AgentBackend {
	case AgentBackendFoundry:
		if c.AgentPollInterval <= 0 {
			return fmt.Errorf("AGENT_POLL_INTERVAL must be positive")
		}
	case AgentBackendLLM:
		if c.SessionStore != SessionStoreRedis {
			return fmt.Errorf("AGENT_BACKEND=llm requires SESSION_STORE=redis for thread history")
		}
		if c.LLMProvider == "" {
			return fmt.Errorf("LLM_PROVIDER is required")
		}
		if c.LLMModel == "" {
			return fmt.Errorf("LLM_MODEL is required")
		}
		if c.LLMMaxTokens <= 0 {
			return fmt.Errorf("LLM_MAX_TOKENS must be positive")
		}
		if c.LLMHistoryLimit <= 0 {
			return fmt.Errorf("LLM_HISTORY_LIMIT must be positive")
		}
	default:
		return fmt.Errorf("AGENT_BACKEND must be one of: foundry, llm")
	}

	if c.AgentTimeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT must be positive")
	}

	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}

	if c.SpeechOutputFormat == "" {
		return fmt.Errorf("SPEECH_OUTPUT_FORMAT is required")
	}

	if c.SpeechTimeout <= 0 {
		return fmt.Errorf("SPEECH_TIMEOUT must be positive")
	}

	if !isValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	return nil
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535", name)
	}
	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// AgentConfigured reports whether the selected agent backend has its credentials
func (c *Config) AgentConfigured() bool {
	switch c.AgentBackend {
	case AgentBackendFoundry:
		return c.AgentEndpoint != "" && c.AgentID != "" && c.AgentToken != ""
	case AgentBackendLLM:
		return c.LLMAPIKey != ""
	}
	return false
}

// SearchConfigured reports whether the knowledge base can be queried
func (c *Config) SearchConfigured() bool {
	return c.SearchEndpoint != "" && c.SearchIndexName != "" && c.SearchAPIKey != ""
}

// SpeechConfigured reports whether the speech service can be called
func (c *Config) SpeechConfigured() bool {
	return c.SpeechKey != "" && c.SpeechRegion != ""
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{HTTPPort=%d, HealthPort=%d, StaticDir=%s, SessionStore=%s, SessionTTL=%s, RedisAddr=%s, RedisDB=%d, "+
			"EventStream=%s, AgentBackend=%s, AgentConfigured=%v, SearchConfigured=%v, SpeechConfigured=%v, "+
			"SpeechRegion=%s, LookupRule=%q, LogLevel=%s}",
		c.HTTPPort,
		c.HealthPort,
		c.StaticDir,
		c.SessionStore,
		c.SessionTTL,
		c.RedisAddr,
		c.RedisDB,
		c.EventStream,
		c.AgentBackend,
		c.AgentConfigured(),
		c.SearchConfigured(),
		c.SpeechConfigured(),
		c.SpeechRegion,
		strings.TrimSpace(c.LookupRule),
		c.LogLevel,
	)
}
