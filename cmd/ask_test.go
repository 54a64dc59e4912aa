package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/pipeline"
)

func askState() *pipeline.FlowState {
	return &pipeline.FlowState{
		Question: "which programs need IELTS 6.5 or less?",
		Extraction: &schemas.Extraction{
			Intent: "programs with IELTS requirement at most 6.5",
			Nodes:  []schemas.Node{{Label: "Program", Key: "p"}},
		},
		Query: &schemas.CypherResult{
			Cypher: "MATCH (p:Program) WHERE p.score <= $max_score RETURN p.name",
			Params: map[string]any{"max_score": 6.5},
		},
	}
}

func TestAskExecutesByDefault(t *testing.T) {
	flag := newAskCmd().Flags().Lookup("execute")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}

func TestRenderAskResult(t *testing.T) {
	t.Run("prints every stage and the no-rows notice", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, renderAskResult(&out, askState(), nil, true))

		text := out.String()
		assert.Contains(t, text, "Extraction:")
		assert.Contains(t, text, `"Program"`)
		assert.Contains(t, text, "Cypher:")
		assert.Contains(t, text, "$max_score")
		assert.Contains(t, text, "Params:")
		assert.Contains(t, text, "No rows returned.")
	})

	t.Run("prints the rows when present", func(t *testing.T) {
		var out bytes.Buffer
		rows := []map[string]any{{"p.name": "MSc Computing"}}
		require.NoError(t, renderAskResult(&out, askState(), rows, true))

		text := out.String()
		assert.Contains(t, text, "Rows (1):")
		assert.Contains(t, text, "MSc Computing")
		assert.NotContains(t, text, "No rows returned.")
	})

	t.Run("skipped execution omits the rows section", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, renderAskResult(&out, askState(), nil, false))

		text := out.String()
		assert.Contains(t, text, "Params:")
		assert.NotContains(t, text, "Rows")
		assert.NotContains(t, text, "No rows returned.")
	})
}
