package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRewriterRewrite(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the rewritten question and suggested title", func(t *testing.T) {
		client := &scriptedClient{responses: []string{
			`{"rewritten_question": "What are the IELTS requirements at Monash University?", "new_title": "Monash IELTS requirements"}`,
		}}
		rw := NewRewriter(client, zap.NewNop())

		question, title := rw.Rewrite(ctx, "", []string{"user: tell me about Monash"}, "what about IELTS there?")
		assert.Equal(t, "What are the IELTS requirements at Monash University?", question)
		assert.Equal(t, "Monash IELTS requirements", title)
	})

	t.Run("model failure falls back to the raw question", func(t *testing.T) {
		client := &scriptedClient{errs: []error{errors.New("model down")}}
		rw := NewRewriter(client, zap.NewNop())

		question, title := rw.Rewrite(ctx, "Existing title", nil, "raw question")
		assert.Equal(t, "raw question", question)
		assert.Equal(t, "Existing title", title)
	})

	t.Run("malformed output falls back to the raw question", func(t *testing.T) {
		client := &scriptedClient{responses: []string{"no json here"}}
		rw := NewRewriter(client, zap.NewNop())

		question, title := rw.Rewrite(ctx, "", nil, "raw question")
		assert.Equal(t, "raw question", question)
		assert.Equal(t, "raw question", title)
	})

	t.Run("fallback title is truncated rune-safely", func(t *testing.T) {
		client := &scriptedClient{errs: []error{errors.New("down")}}
		rw := NewRewriter(client, zap.NewNop())

		long := strings.Repeat("hồ", 50)
		_, title := rw.Rewrite(ctx, "", nil, long)
		assert.Equal(t, titleMaxLen, len([]rune(title)))
		assert.True(t, strings.HasPrefix(long, title))
	})

	t.Run("empty fields fall back individually", func(t *testing.T) {
		client := &scriptedClient{responses: []string{
			`{"rewritten_question": "", "new_title": "Only a title"}`,
		}}
		rw := NewRewriter(client, zap.NewNop())

		question, title := rw.Rewrite(ctx, "", nil, "original")
		assert.Equal(t, "original", question)
		assert.Equal(t, "Only a title", title)
	})
}
