package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExtraction() *Extraction {
	return &Extraction{
		Intent: "movies Tom Hanks acted in",
		Nodes: []Node{
			{Label: "Person", Key: "p", Properties: map[string]any{"name": "Tom Hanks"}},
			{Label: "Movie", Key: "m"},
		},
		Relationships: []Relationship{
			{Type: "ACTED_IN", StartKey: "p", EndKey: "m", Direction: DirectionOut},
		},
		Returns: []string{"m.title"},
	}
}

func TestExtractionValidate(t *testing.T) {
	t.Run("accepts a well-formed extraction", func(t *testing.T) {
		require.NoError(t, validExtraction().Validate())
	})

	t.Run("rejects an empty extraction", func(t *testing.T) {
		e := &Extraction{Intent: "anything"}
		assert.ErrorIs(t, e.Validate(), ErrEmptyExtraction)
	})

	t.Run("a node-only extraction is not empty", func(t *testing.T) {
		e := &Extraction{Nodes: []Node{{Label: "Movie", Key: "m"}}}
		assert.False(t, e.IsEmpty())
		assert.NoError(t, e.Validate())
	})

	t.Run("rejects duplicate node keys", func(t *testing.T) {
		e := validExtraction()
		e.Nodes = append(e.Nodes, Node{Label: "Genre", Key: "p"})
		assert.ErrorIs(t, e.Validate(), ErrDuplicateKey)
	})

	t.Run("rejects dangling relationship endpoints", func(t *testing.T) {
		e := validExtraction()
		e.Relationships[0].EndKey = "nope"
		assert.ErrorIs(t, e.Validate(), ErrDanglingKey)
	})

	t.Run("rejects unknown directions", func(t *testing.T) {
		e := validExtraction()
		e.Relationships[0].Direction = "=>"
		assert.ErrorIs(t, e.Validate(), ErrBadDirection)
	})

	t.Run("allows omitted direction", func(t *testing.T) {
		e := validExtraction()
		e.Relationships[0].Direction = ""
		assert.NoError(t, e.Validate())
	})

	t.Run("rejects a node without a label", func(t *testing.T) {
		e := validExtraction()
		e.Nodes[1].Label = ""
		assert.Error(t, e.Validate())
	})
}

func TestExtractionNodeKeys(t *testing.T) {
	e := validExtraction()
	e.Nodes = append(e.Nodes, Node{Label: "Genre"}) // no key
	assert.Equal(t, []string{"p", "m"}, e.NodeKeys())
}

func TestCypherResultValidate(t *testing.T) {
	t.Run("rejects blank cypher", func(t *testing.T) {
		c := &CypherResult{Cypher: "   \n"}
		assert.ErrorIs(t, c.Validate(), ErrEmptyCypher)
	})

	t.Run("accepts non-empty cypher with no params", func(t *testing.T) {
		c := &CypherResult{Cypher: "MATCH (m:Movie) RETURN m"}
		assert.NoError(t, c.Validate())
	})
}

func TestCypherResultMissingParams(t *testing.T) {
	c := &CypherResult{
		Cypher: "MATCH (p:Person {name: $name})-[:ACTED_IN]->(m:Movie) WHERE m.released > $year AND m.released < $year RETURN m.title",
		Params: map[string]any{"name": "Tom Hanks"},
	}
	// $year appears twice but is reported once, in order of first appearance.
	assert.Equal(t, []string{"year"}, c.MissingParams())

	c.Params["year"] = 2000
	assert.Empty(t, c.MissingParams())
}
