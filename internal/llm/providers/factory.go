package providers

import (
	"fmt"

	"github.com/promoforge/promoforge/internal/llm"
)

// New constructs the ModelService named by cfg.Provider.
// The handle is built once at process start and injected into every
// component that needs model access.
func New(cfg llm.ProviderConfig) (llm.ModelService, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "mock":
		return NewMockService(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", cfg.Provider)
	}
}
