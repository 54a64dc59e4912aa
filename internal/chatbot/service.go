// internal/chatbot/service.go
// Package chatbot hosts the chat-facing answer strategies. The template
// strategy classifies the question into a fixed intent set and dispatches
// pre-authored Cypher (predictable, can't malform queries); the pipeline
// strategy runs free two-stage generation (general, can express novel
// queries). Both sit behind one Strategy interface so deployments pick their
// risk tolerance in configuration.
package chatbot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/llmutil"
)

// ErrEmptyMessage rejects blank chat messages before any model call.
var ErrEmptyMessage = errors.New("message must not be empty")

// DefaultSystemPrompt is the assistant persona used when no prompt file is
// configured.
const DefaultSystemPrompt = "You are an assistant for Australian study, visa, and settlement questions. " +
	"Answer briefly in Vietnamese with bullet points where helpful, add links if available, " +
	"and keep a friendly, encouraging tone."

// Result is what a strategy produces for one chat turn.
type Result struct {
	Reply     string
	Analysis  schemas.IntentAnalysis
	Rows      []map[string]any
	QueryType string
}

// Strategy answers a single self-contained question.
type Strategy interface {
	Answer(ctx context.Context, question string) (*Result, error)
}

// Service is the template-intent chat strategy: detect intent, run the
// matching static template, then phrase the rows as prose (or fall back to a
// disclaimed general-knowledge answer when nothing matched).
type Service struct {
	client       schemas.LLMClient
	executor     schemas.GraphExecutor
	systemPrompt string
	logger       *zap.Logger
}

// NewService builds the template strategy. The prompt file is optional; a
// missing or unreadable file falls back to the built-in persona.
func NewService(client schemas.LLMClient, executor schemas.GraphExecutor, promptFile string, logger *zap.Logger) *Service {
	return &Service{
		client:       client,
		executor:     executor,
		systemPrompt: loadSystemPrompt(promptFile),
		logger:       logger.Named("chatbot"),
	}
}

func loadSystemPrompt(path string) string {
	if path == "" {
		return DefaultSystemPrompt
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSystemPrompt
	}
	if prompt := strings.TrimSpace(string(data)); prompt != "" {
		return prompt
	}
	return DefaultSystemPrompt
}

const detectIntentPromptTmpl = `Analyze the question and return JSON only.

User: "%s"

Return format:
{
    "intent": "STUDY|VISA|SETTLEMENT|PATHWAY|COMPARE",
    "entities": {
        "university_name": "...",
        "level": "Bachelor|Master|Doctor",
        "field": "...",
        "exam_type": "IELTS|TOEFL",
        "max_score": 6.5,
        "subclass": "500",
        "keyword": "..."
    },
    "query_type": "find_programs_by_university|find_programs_by_ielts|visa_info|visa_eligibility|settlement_info|comprehensive_pathway"
}

Only output valid JSON, no explanation.`

// DetectIntent classifies the question into an intent, an entity mapping and
// a template query type via a strict-JSON model call. A malformed analysis is
// not fatal for the chat turn: it degrades to the fallback classification.
func (s *Service) DetectIntent(ctx context.Context, question string) schemas.IntentAnalysis {
	raw, err := s.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: s.systemPrompt,
		UserPrompt:   fmt.Sprintf(detectIntentPromptTmpl, question),
		Options: schemas.GenerationOptions{
			Temperature:     0,
			ForceJSONFormat: true,
		},
	})
	if err == nil {
		analysis, perr := llmutil.ParseJSONResponse[schemas.IntentAnalysis](raw)
		if perr == nil {
			if analysis.Entities == nil {
				analysis.Entities = map[string]any{}
			}
			return *analysis
		}
		err = perr
	}

	s.logger.Warn("Intent detection failed; using fallback classification", zap.Error(err))
	return schemas.IntentAnalysis{
		Intent:    "STUDY",
		Entities:  map[string]any{},
		QueryType: string(QueryFallback),
	}
}

// ExecuteTemplate runs the static template for a classified query type.
// Unknown types and missing required entities yield empty rows, steering the
// turn toward the fallback answer instead of a store-level error.
func (s *Service) ExecuteTemplate(ctx context.Context, queryType QueryType, entities map[string]any) ([]map[string]any, error) {
	tpl, ok := Template(queryType)
	if !ok {
		return nil, nil
	}

	params := make(map[string]any, len(tpl.requiredKeys))
	for _, key := range tpl.requiredKeys {
		value, present := entities[key]
		if !present || value == nil {
			s.logger.Debug("Template entity missing; skipping execution",
				zap.String("query_type", string(queryType)),
				zap.String("missing_key", key))
			return nil, nil
		}
		params[key] = value
	}

	return s.executor.Run(ctx, tpl.cypher, params)
}

const formatResponsePromptTmpl = `User question: "%s"

Database results:
%s

Respond naturally in Vietnamese:
- Friendly tone and concise
- Use bullets and bold where helpful
- Add links if present
- Suggest next steps briefly`

// FormatResponse turns rows into prose grounded in the data.
func (s *Service) FormatResponse(ctx context.Context, question string, rows []map[string]any) (string, error) {
	rowsJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal rows: %w", err)
	}
	return s.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: s.systemPrompt,
		UserPrompt:   fmt.Sprintf(formatResponsePromptTmpl, question, rowsJSON),
		Options:      schemas.GenerationOptions{Temperature: 0.4},
	})
}

const fallbackPromptTmpl = `User question: "%s"

No exact database match. Answer based on your knowledge about studying, visas, and settlement in Australia.
Start by noting that no exact match was found in the database. Keep the answer short, helpful, and invite the user to ask for more details.`

// fallbackResponse produces a disclaimed general-knowledge answer. It covers
// only the no-rows case; genuine generation failures are surfaced, never
// swallowed into it.
func (s *Service) fallbackResponse(ctx context.Context, question string) (string, error) {
	return s.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: s.systemPrompt,
		UserPrompt:   fmt.Sprintf(fallbackPromptTmpl, question),
		Options:      schemas.GenerationOptions{Temperature: 0.4},
	})
}

// Answer implements Strategy for one chat turn.
func (s *Service) Answer(ctx context.Context, question string) (*Result, error) {
	cleaned := strings.TrimSpace(question)
	if cleaned == "" {
		return nil, ErrEmptyMessage
	}

	analysis := s.DetectIntent(ctx, cleaned)
	queryType := QueryType(analysis.QueryType)
	if queryType == "" {
		queryType = QueryFallback
	}

	rows, err := s.ExecuteTemplate(ctx, queryType, analysis.Entities)
	if err != nil {
		return nil, fmt.Errorf("template execution failed: %w", err)
	}

	var reply string
	if len(rows) > 0 {
		reply, err = s.FormatResponse(ctx, cleaned, rows)
	} else {
		rows = nil
		reply, err = s.fallbackResponse(ctx, cleaned)
	}
	if err != nil {
		return nil, fmt.Errorf("response generation failed: %w", err)
	}

	return &Result{
		Reply:     reply,
		Analysis:  analysis,
		Rows:      rows,
		QueryType: string(queryType),
	}, nil
}
