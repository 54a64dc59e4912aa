package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSample(t *testing.T) {
	t.Run("returns nil for no rows", func(t *testing.T) {
		assert.Nil(t, buildSample(nil))
	})

	t.Run("deduplicates nodes across rows", func(t *testing.T) {
		rows := []map[string]any{
			{
				"source_id": int64(1), "source_labels": []any{"Person"},
				"target_id": int64(2), "target_labels": []any{"Movie"},
				"type": "ACTED_IN",
			},
			{
				"source_id": int64(1), "source_labels": []any{"Person"},
				"target_id": int64(3), "target_labels": []any{"Movie"},
				"type": "DIRECTED",
			},
		}

		preview := buildSample(rows)
		require.NotNil(t, preview)
		assert.Len(t, preview.Nodes, 3, "node 1 appears in both rows but once in the preview")
		assert.Len(t, preview.Relationships, 2)
		assert.Equal(t, int64(1), preview.Nodes[0].ID)
		assert.Equal(t, []string{"Person"}, preview.Nodes[0].Labels)
	})
}

func TestRowCoercionHelpers(t *testing.T) {
	assert.Equal(t, int64(5), asInt64(int64(5)))
	assert.Equal(t, int64(5), asInt64(5))
	assert.Equal(t, int64(5), asInt64(5.0))
	assert.Equal(t, int64(0), asInt64("five"))

	assert.Equal(t, "x", asString("x"))
	assert.Equal(t, "", asString(nil))

	assert.Equal(t, []string{"a", "b"}, asStrings([]any{"a", 1, "b"}))
	assert.Equal(t, []string{"a"}, asStrings([]string{"a"}))
	assert.Nil(t, asStrings(42))
}
