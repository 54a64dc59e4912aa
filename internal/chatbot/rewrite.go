// internal/chatbot/rewrite.go
package chatbot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/llmutil"
)

const titleMaxLen = 60

const rewriteSystemPrompt = "You summarize and rewrite questions for a study/visa advisory chatbot. " +
	"Always answer with JSON holding exactly two keys: rewritten_question and new_title. " +
	"Never wrap the JSON in a code block."

const rewritePromptTmpl = `You will receive:
- Current title: "%s"
- History: %s
- New question: "%s"

Tasks:
1) Rewrite the new question so it is self-contained (use title/history where they help).
2) Suggest a concise title (<= 60 characters) summarizing the conversation.

Return JSON only with exactly these two keys:
{
  "rewritten_question": "...",
  "new_title": "..."
}`

type rewriteResult struct {
	RewrittenQuestion string `json:"rewritten_question"`
	NewTitle          string `json:"new_title"`
}

// Rewriter folds conversation history into each new question so the answer
// strategies always see a self-contained query, and proposes an updated
// conversation title along the way.
type Rewriter struct {
	client schemas.LLMClient
	logger *zap.Logger
}

// NewRewriter wires the context rewriter to a model client.
func NewRewriter(client schemas.LLMClient, logger *zap.Logger) *Rewriter {
	return &Rewriter{
		client: client,
		logger: logger.Named("rewriter"),
	}
}

// Rewrite returns the contextualized question and a suggested title. Any
// model or parse failure falls back to the raw question and the existing (or
// truncated) title: context rewriting is an enhancement, never a gate.
func (r *Rewriter) Rewrite(ctx context.Context, currentTitle string, history []string, newQuestion string) (question, title string) {
	raw, err := r.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: rewriteSystemPrompt,
		UserPrompt:   fmt.Sprintf(rewritePromptTmpl, currentTitle, strings.Join(history, "\n"), newQuestion),
		Options: schemas.GenerationOptions{
			Temperature:     0,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		r.logger.Warn("Context rewrite failed; using original question", zap.Error(err))
		return newQuestion, fallbackTitle(currentTitle, newQuestion)
	}

	parsed, err := llmutil.ParseJSONResponse[rewriteResult](raw)
	if err != nil {
		r.logger.Warn("Context rewrite returned malformed JSON; using original question", zap.Error(err))
		return newQuestion, fallbackTitle(currentTitle, newQuestion)
	}

	question = parsed.RewrittenQuestion
	if question == "" {
		question = newQuestion
	}
	title = parsed.NewTitle
	if title == "" {
		title = fallbackTitle(currentTitle, newQuestion)
	}

	r.logger.Debug("Context rewrite complete",
		zap.String("new_title", title),
		zap.String("rewritten_question", question))
	return question, title
}

func fallbackTitle(currentTitle, question string) string {
	if currentTitle != "" {
		return currentTitle
	}
	runes := []rune(question)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen])
	}
	return question
}
