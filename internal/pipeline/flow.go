// internal/pipeline/flow.go
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
)

// FlowState carries the data threaded through one pipeline invocation.
// Extraction is written by the extract step and read by the generate step;
// Rows are filled in later by the executor, outside this flow.
type FlowState struct {
	Question   string                `json:"question"`
	SchemaText string                `json:"schema_text"`
	Extraction *schemas.Extraction   `json:"extraction,omitempty"`
	Query      *schemas.CypherResult `json:"query,omitempty"`
	Rows       []map[string]any      `json:"rows,omitempty"`
}

// Flow is the strictly sequential extract -> generate orchestrator. One pass
// per invocation: no branching, no retries, no loop-back from generate to
// extract. A failed step aborts the whole invocation.
type Flow struct {
	extractor *Extractor
	generator *CypherGenerator
	logger    *zap.Logger
}

// NewFlow assembles the two stages into a pipeline.
func NewFlow(extractor *Extractor, generator *CypherGenerator, logger *zap.Logger) *Flow {
	return &Flow{
		extractor: extractor,
		generator: generator,
		logger:    logger.Named("flow"),
	}
}

// Run executes extract then generate. The generate step requires a non-nil
// extraction in state; its absence is fatal for the invocation and is
// surfaced immediately rather than retried.
func (f *Flow) Run(ctx context.Context, question, schemaText string) (*FlowState, error) {
	state := &FlowState{
		Question:   question,
		SchemaText: schemaText,
	}

	extraction, err := f.extractor.Generate(ctx, state.Question, state.SchemaText)
	if err != nil {
		return state, fmt.Errorf("extract step failed: %w", err)
	}
	state.Extraction = extraction

	if state.Extraction == nil {
		return state, fmt.Errorf("extraction missing in state")
	}

	query, err := f.generator.Generate(ctx, state.Extraction, state.SchemaText)
	if err != nil {
		return state, fmt.Errorf("generate step failed: %w", err)
	}
	state.Query = query

	f.logger.Info("Pipeline invocation complete",
		zap.String("intent", extraction.Intent),
		zap.Int("params", len(query.Params)),
	)
	return state, nil
}
