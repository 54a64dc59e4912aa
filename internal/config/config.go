// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LLMProvider identifies a supported language model backend.
type LLMProvider string

// ProviderGemini is currently the only supported backend.
const ProviderGemini LLMProvider = "gemini"

// Chatbot query strategies. "templates" dispatches pre-authored Cypher keyed
// by classified intent; "pipeline" runs the free two-stage generation flow.
const (
	StrategyTemplates = "templates"
	StrategyPipeline  = "pipeline"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Neo4j() Neo4jConfig
	LLM() LLMConfig
	JWT() JWTConfig
	Server() ServerConfig
	Chatbot() ChatbotConfig
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	Neo4jCfg    Neo4jConfig    `mapstructure:"neo4j" yaml:"neo4j"`
	LLMCfg      LLMConfig      `mapstructure:"llm" yaml:"llm"`
	JWTCfg      JWTConfig      `mapstructure:"jwt" yaml:"jwt"`
	ServerCfg   ServerConfig   `mapstructure:"server" yaml:"server"`
	ChatbotCfg  ChatbotConfig  `mapstructure:"chatbot" yaml:"chatbot"`
}

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Neo4j() Neo4jConfig       { return c.Neo4jCfg }
func (c *Config) LLM() LLMConfig           { return c.LLMCfg }
func (c *Config) JWT() JWTConfig           { return c.JWTCfg }
func (c *Config) Server() ServerConfig     { return c.ServerCfg }
func (c *Config) Chatbot() ChatbotConfig   { return c.ChatbotCfg }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the PostgreSQL connection details for conversation
// history and user accounts.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// Neo4jConfig holds the graph store connection details. All three of URI,
// username and password must be set for a live connection; otherwise the
// application runs in a degraded, connection-less mode.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// Configured reports whether a live graph connection can be attempted.
func (n Neo4jConfig) Configured() bool {
	return n.URI != "" && n.Username != "" && n.Password != ""
}

// LLMConfig defines the configuration for the language model backend.
type LLMConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"api_key"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// JWTConfig defines settings for access token issuance and verification.
type JWTConfig struct {
	Secret        string        `mapstructure:"secret" yaml:"secret"`
	AccessExpiry  time.Duration `mapstructure:"access_expiry" yaml:"access_expiry"`
	SigningMethod string        `mapstructure:"signing_method" yaml:"signing_method"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ChatbotConfig selects the query strategy and the assistant persona.
type ChatbotConfig struct {
	// Strategy is "templates" (fixed intent-keyed Cypher) or "pipeline"
	// (free two-stage generation). Templates are the predictable default.
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	// SystemPromptFile optionally overrides the built-in assistant persona.
	SystemPromptFile string `mapstructure:"system_prompt_file" yaml:"system_prompt_file"`
	// HistoryWindow is how many recent messages feed the context rewriter.
	HistoryWindow int `mapstructure:"history_window" yaml:"history_window"`
}

// NewDefaultConfig builds a Config populated with defaults only, used by
// tests and by callers that do not load a config file.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "text2cypher")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Neo4j --
	v.SetDefault("neo4j.database", "neo4j")

	// -- LLM --
	v.SetDefault("llm.provider", string(ProviderGemini))
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.api_timeout", "60s")
	v.SetDefault("llm.max_tokens", 4096)

	// -- JWT --
	v.SetDefault("jwt.secret", "change-this-in-production")
	v.SetDefault("jwt.access_expiry", "30m")
	v.SetDefault("jwt.signing_method", "HS256")

	// -- Server --
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// -- Chatbot --
	v.SetDefault("chatbot.strategy", StrategyTemplates)
	v.SetDefault("chatbot.history_window", 10)
}
