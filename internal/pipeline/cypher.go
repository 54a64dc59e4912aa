// internal/pipeline/cypher.go
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/llmutil"
)

const cypherSystemPrompt = "You are a senior Neo4j Cypher engineer. Generate parameterized Cypher matching the extraction. " +
	"Rules: prefer MATCH with the declared node labels; reuse the extraction's node keys as pattern variables " +
	"(synthesize unique ones when absent); translate every filter into a WHERE clause; every literal value " +
	"(node properties, relationship properties, filter literals) must be a $parameter entry in params, never " +
	"inlined in the query text; RETURN exactly the requested fields, or all node variables when none are requested."

const cypherUserPromptTmpl = `Schema summary (may be incomplete): %s
Extraction JSON: %s

Output JSON ONLY: {"cypher": "...", "params": {"name": "value"}}`

// CypherGenerator renders a validated Extraction into a parameterized query
// via a zero-temperature model call. The free-text filter expressions are
// translated by the model as a best-effort heuristic, not a formal grammar;
// the parameterization discipline is what the surrounding code enforces.
type CypherGenerator struct {
	client schemas.LLMClient
	logger *zap.Logger
}

// NewCypherGenerator wires the query generation stage to a model client.
func NewCypherGenerator(client schemas.LLMClient, logger *zap.Logger) *CypherGenerator {
	return &CypherGenerator{
		client: client,
		logger: logger.Named("cypher_generator"),
	}
}

// Generate produces the CypherResult for an extraction. An empty extraction
// is a structural error: emitting a query for it would trivially match the
// entire graph. Unknown `returns` entries pass through with a warning rather
// than being rejected; they are model-inferred and a miss is survivable.
func (g *CypherGenerator) Generate(ctx context.Context, extraction *schemas.Extraction, schemaText string) (*schemas.CypherResult, error) {
	if extraction == nil || extraction.IsEmpty() {
		return nil, schemas.ErrEmptyExtraction
	}

	g.warnUnknownReturns(extraction)

	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction: %w", err)
	}

	req := schemas.GenerationRequest{
		SystemPrompt: cypherSystemPrompt,
		UserPrompt:   fmt.Sprintf(cypherUserPromptTmpl, schemaText, extractionJSON),
		Options: schemas.GenerationOptions{
			Temperature:     0,
			ForceJSONFormat: true,
		},
	}

	raw, err := g.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cypher generation failed: %w", err)
	}

	result, err := llmutil.ParseJSONResponse[schemas.CypherResult](raw)
	if err != nil {
		return nil, fmt.Errorf("cypher output did not match the required shape: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", llmutil.ErrMalformedOutput, err)
	}
	if result.Params == nil {
		result.Params = map[string]any{}
	}

	// The generator provides no self-check for unresolved placeholders; they
	// fail hard at execution time. Log them so operators can see why.
	if missing := result.MissingParams(); len(missing) > 0 {
		g.logger.Warn("Generated cypher references parameters with no value",
			zap.Strings("missing", missing))
	}

	g.logger.Debug("Cypher generation complete",
		zap.String("cypher", result.Cypher),
		zap.Int("params", len(result.Params)),
	)
	return result, nil
}

// warnUnknownReturns logs return entries that reference no declared node key.
// Unknown entries still pass through to the model.
func (g *CypherGenerator) warnUnknownReturns(extraction *schemas.Extraction) {
	keys := make(map[string]struct{})
	for _, k := range extraction.NodeKeys() {
		keys[k] = struct{}{}
	}
	for _, ret := range extraction.Returns {
		base := ret
		if idx := strings.IndexByte(ret, '.'); idx > 0 {
			base = ret[:idx]
		}
		if _, ok := keys[base]; !ok {
			g.logger.Warn("Return entry references an undeclared key; passing through",
				zap.String("entry", ret))
		}
	}
}
