// api/schemas/extraction.go
package schemas

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Relationship direction markers as they appear in Cypher patterns.
const (
	DirectionOut        = "->"
	DirectionIn         = "<-"
	DirectionUndirected = "-"
)

// Sentinel errors for structural validation of model-inferred data. Callers
// use errors.Is to map these onto API responses.
var (
	ErrEmptyExtraction = errors.New("extraction contains no nodes and no relationships")
	ErrDanglingKey     = errors.New("relationship references an undeclared node key")
	ErrDuplicateKey    = errors.New("node key declared more than once")
	ErrBadDirection    = errors.New("relationship direction must be one of '->', '<-', '-'")
	ErrEmptyCypher     = errors.New("generated cypher text is empty")
)

// Node is a candidate graph entity inferred from the question, e.g.
// {label: "Movie", key: "m", properties: {"title": "Heat"}}.
type Node struct {
	// Label is the graph label, e.g. 'Person' or 'Movie'. Required.
	Label string `json:"label"`
	// Key is the Cypher variable name used to reference this node (e.g. 'p').
	// Optional; when set it must be unique within the extraction.
	Key string `json:"key,omitempty"`
	// Properties hold literal constraints like {"name": "Tom Hanks"}.
	Properties map[string]any `json:"properties,omitempty"`
}

// Relationship connects two declared nodes by their variable keys.
type Relationship struct {
	// Type is the relationship type, e.g. 'ACTED_IN'. Required.
	Type string `json:"type"`
	// StartKey and EndKey must resolve to a Node.Key in the same extraction.
	StartKey string `json:"start_key"`
	EndKey   string `json:"end_key"`
	// Direction is '->', '<-' or '-' for undirected. Defaults to '->'.
	Direction  string         `json:"direction,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Filter is a free-text boolean expression such as "release year > 2010".
// It is not parsed at this layer; the Cypher generator interprets it as a
// best-effort WHERE clause with parameterized literals.
type Filter struct {
	Expression string `json:"expression"`
}

// Extraction is the structured intermediate representation of a question:
// what the user means, independent of how it is phrased in Cypher.
type Extraction struct {
	// Intent is a brief statement of what the user wants.
	Intent        string         `json:"intent"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Filters       []Filter       `json:"filters"`
	// Returns names node keys or property paths to project, e.g. ["m.title"].
	Returns []string `json:"returns"`
}

// IsEmpty reports whether the extraction describes nothing at all. An empty
// extraction must never reach query generation: the resulting query would
// trivially match the whole graph.
func (e *Extraction) IsEmpty() bool {
	return len(e.Nodes) == 0 && len(e.Relationships) == 0
}

// Validate enforces the structural invariants on model-inferred data:
// the extraction is non-empty, node keys are unique, every relationship
// endpoint resolves to a declared key, and directions are well formed.
func (e *Extraction) Validate() error {
	if e.IsEmpty() {
		return ErrEmptyExtraction
	}

	keys := make(map[string]struct{}, len(e.Nodes))
	for _, n := range e.Nodes {
		if n.Label == "" {
			return fmt.Errorf("node with key %q has no label", n.Key)
		}
		if n.Key == "" {
			continue
		}
		if _, dup := keys[n.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, n.Key)
		}
		keys[n.Key] = struct{}{}
	}

	for i, r := range e.Relationships {
		if r.Type == "" {
			return fmt.Errorf("relationship %d has no type", i)
		}
		if _, ok := keys[r.StartKey]; !ok {
			return fmt.Errorf("%w: start_key %q", ErrDanglingKey, r.StartKey)
		}
		if _, ok := keys[r.EndKey]; !ok {
			return fmt.Errorf("%w: end_key %q", ErrDanglingKey, r.EndKey)
		}
		switch r.Direction {
		case "", DirectionOut, DirectionIn, DirectionUndirected:
		default:
			return fmt.Errorf("%w: got %q", ErrBadDirection, r.Direction)
		}
	}
	return nil
}

// NodeKeys returns the declared variable keys in declaration order.
func (e *Extraction) NodeKeys() []string {
	out := make([]string, 0, len(e.Nodes))
	for _, n := range e.Nodes {
		if n.Key != "" {
			out = append(out, n.Key)
		}
	}
	return out
}

// CypherResult is the generated parameterized query. Literal values live in
// Params only; the query text references them by $placeholder.
type CypherResult struct {
	Cypher string         `json:"cypher"`
	Params map[string]any `json:"params"`
}

// placeholderRegex matches $name parameter references in Cypher text.
var placeholderRegex = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Validate checks the result is usable at all. Placeholder resolution is a
// separate concern (see MissingParams): the store raises unresolved
// parameters at execution time.
func (c *CypherResult) Validate() error {
	if strings.TrimSpace(c.Cypher) == "" {
		return ErrEmptyCypher
	}
	return nil
}

// MissingParams reports placeholder names referenced in the query text that
// have no corresponding entry in Params, in order of first appearance.
func (c *CypherResult) MissingParams() []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRegex.FindAllStringSubmatch(c.Cypher, -1) {
		name := m[1]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := c.Params[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
