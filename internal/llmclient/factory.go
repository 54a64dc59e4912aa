// internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/config"
)

// NewClient is a factory function that creates an LLMClient based on the
// configured provider. Construction failure is fatal for the conversational
// surfaces but must not prevent the hosting layer from booting.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}
