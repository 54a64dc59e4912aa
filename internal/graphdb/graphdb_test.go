package graphdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/internal/config"
)

func TestConnectUnconfigured(t *testing.T) {
	// Missing credentials mean degraded mode, not a startup failure.
	driver, err := Connect(config.Neo4jConfig{})
	require.NoError(t, err)
	assert.Nil(t, driver)

	driver, err = Connect(config.Neo4jConfig{URI: "neo4j://localhost:7687"})
	require.NoError(t, err)
	assert.Nil(t, driver, "partial credentials must not attempt a connection")
}

func TestExecutorDegradedMode(t *testing.T) {
	executor := NewExecutor(nil, "", zap.NewNop())
	ctx := context.Background()

	assert.False(t, executor.Connected())

	t.Run("run returns empty rows without error", func(t *testing.T) {
		rows, err := executor.Run(ctx, "MATCH (n) RETURN n", map[string]any{"x": 1})
		require.NoError(t, err)
		require.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("schema snapshot falls back to the default description", func(t *testing.T) {
		schema, err := executor.SchemaSnapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultSchema, schema)
		assert.NotEmpty(t, schema, "downstream prompts require non-empty schema text")
	})

	t.Run("summary is refused without a driver", func(t *testing.T) {
		_, err := executor.Summary(ctx)
		assert.Error(t, err)
	})
}

func TestNewExecutorDefaultsDatabase(t *testing.T) {
	executor := NewExecutor(nil, "", zap.NewNop())
	assert.Equal(t, "neo4j", executor.dbName)

	executor = NewExecutor(nil, "movies", zap.NewNop())
	assert.Equal(t, "movies", executor.dbName)
}
