package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "console", cfg.Logger().Format)
	assert.Equal(t, "text2cypher", cfg.Logger().ServiceName)

	assert.Equal(t, "neo4j", cfg.Neo4j().Database)
	assert.False(t, cfg.Neo4j().Configured(), "defaults must not imply a live graph connection")

	assert.Equal(t, ProviderGemini, cfg.LLM().Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM().Model)
	assert.Equal(t, 60*time.Second, cfg.LLM().APITimeout)

	assert.Equal(t, 30*time.Minute, cfg.JWT().AccessExpiry)
	assert.Equal(t, "HS256", cfg.JWT().SigningMethod)

	assert.Equal(t, ":8000", cfg.Server().Addr)
	assert.Equal(t, 10*time.Second, cfg.Server().ShutdownTimeout)

	assert.Equal(t, StrategyTemplates, cfg.Chatbot().Strategy)
	assert.Equal(t, 10, cfg.Chatbot().HistoryWindow)
}

func TestNeo4jConfigured(t *testing.T) {
	assert.False(t, Neo4jConfig{}.Configured())
	assert.False(t, Neo4jConfig{URI: "neo4j://h"}.Configured())
	assert.False(t, Neo4jConfig{URI: "neo4j://h", Username: "u"}.Configured())
	assert.True(t, Neo4jConfig{URI: "neo4j://h", Username: "u", Password: "p"}.Configured())
}
