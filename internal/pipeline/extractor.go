// internal/pipeline/extractor.go
// Package pipeline implements the two-stage text-to-Cypher flow: a question
// is first distilled into a structured Extraction (what the user means), then
// rendered into a parameterized Cypher query (how to express it). Splitting
// the stages lets either one be replaced or upgraded in isolation.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/llmutil"
)

const extractSystemPrompt = "You are a precise information extraction agent for building Cypher queries. " +
	"Read the user's question and extract minimal nodes, relationships, filters, and returns. " +
	"Prefer labels and relationship types declared in the schema summary when it names them."

const extractUserPromptTmpl = `Schema summary (may be incomplete):
%s

Question: %s

Return JSON ONLY with this exact shape:
{
  "intent": "brief statement of user intent",
  "nodes": [{"label": "...", "key": "...", "properties": {"name": "..."}}],
  "relationships": [{"type": "...", "start_key": "...", "end_key": "...", "direction": "->"}],
  "filters": [{"expression": "english boolean filter, e.g. 'release year > 2010'"}],
  "returns": ["node keys or property paths to return"]
}`

// Extractor turns a natural-language question plus a schema snapshot into a
// structured Extraction via a zero-temperature, JSON-forced model call.
type Extractor struct {
	client schemas.LLMClient
	logger *zap.Logger
}

// NewExtractor wires the extraction stage to a model client.
func NewExtractor(client schemas.LLMClient, logger *zap.Logger) *Extractor {
	return &Extractor{
		client: client,
		logger: logger.Named("extractor"),
	}
}

// Generate runs the extraction call and enforces the output shape. Malformed
// model output raises a generation error rather than silently degrading to an
// empty extraction; structural problems (dangling relationship keys, duplicate
// node keys) are raised here, before query generation can proceed.
func (e *Extractor) Generate(ctx context.Context, question, schemaText string) (*schemas.Extraction, error) {
	req := schemas.GenerationRequest{
		SystemPrompt: extractSystemPrompt,
		UserPrompt:   fmt.Sprintf(extractUserPromptTmpl, schemaText, question),
		Options: schemas.GenerationOptions{
			Temperature:     0,
			ForceJSONFormat: true,
		},
	}

	raw, err := e.client.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("extraction generation failed: %w", err)
	}

	extraction, err := llmutil.ParseJSONResponse[schemas.Extraction](raw)
	if err != nil {
		return nil, fmt.Errorf("extraction output did not match the required shape: %w", err)
	}

	if err := extraction.Validate(); err != nil {
		return nil, fmt.Errorf("structurally invalid extraction: %w", err)
	}

	e.logger.Debug("Extraction complete",
		zap.String("intent", extraction.Intent),
		zap.Int("nodes", len(extraction.Nodes)),
		zap.Int("relationships", len(extraction.Relationships)),
		zap.Int("filters", len(extraction.Filters)),
	)
	return extraction, nil
}
