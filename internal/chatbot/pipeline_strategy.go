// internal/chatbot/pipeline_strategy.go
package chatbot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/pipeline"
)

// PipelineStrategy answers chat turns through the free two-stage generation
// flow instead of template dispatch. Generation failures propagate: a
// malformed or structurally invalid result is a real error, not a cue for
// the disclaimed fallback.
type PipelineStrategy struct {
	flow       *pipeline.Flow
	executor   schemas.GraphExecutor
	formatter  *Service
	schemaText string
	logger     *zap.Logger
}

// NewPipelineStrategy wires the generation flow to an executor and reuses the
// template service's formatting and fallback prompts for the final prose.
func NewPipelineStrategy(flow *pipeline.Flow, executor schemas.GraphExecutor, formatter *Service, schemaText string, logger *zap.Logger) *PipelineStrategy {
	return &PipelineStrategy{
		flow:       flow,
		executor:   executor,
		formatter:  formatter,
		schemaText: schemaText,
		logger:     logger.Named("pipeline_strategy"),
	}
}

// Answer implements Strategy.
func (p *PipelineStrategy) Answer(ctx context.Context, question string) (*Result, error) {
	cleaned := strings.TrimSpace(question)
	if cleaned == "" {
		return nil, ErrEmptyMessage
	}

	state, err := p.flow.Run(ctx, cleaned, p.schemaText)
	if err != nil {
		return nil, err
	}

	rows, err := p.executor.Run(ctx, state.Query.Cypher, state.Query.Params)
	if err != nil {
		return nil, fmt.Errorf("generated query execution failed: %w", err)
	}

	var reply string
	if len(rows) > 0 {
		reply, err = p.formatter.FormatResponse(ctx, cleaned, rows)
	} else {
		rows = nil
		reply, err = p.formatter.fallbackResponse(ctx, cleaned)
	}
	if err != nil {
		return nil, fmt.Errorf("response generation failed: %w", err)
	}

	return &Result{
		Reply: reply,
		Analysis: schemas.IntentAnalysis{
			Intent:    state.Extraction.Intent,
			Entities:  state.Query.Params,
			QueryType: "generated",
		},
		Rows:      rows,
		QueryType: "generated",
	}, nil
}
