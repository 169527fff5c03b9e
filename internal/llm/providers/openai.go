package providers

import (
	"context"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/promoforge/promoforge/internal/llm"
)

// OpenAIProvider implements llm.ModelService backed by OpenAI.
// Text completions go through langchaingo; image generation uses the
// direct HTTP client since langchaingo does not expose the images API.
type OpenAIProvider struct {
	client *openai.LLM
	images *openaiImageClient
	config llm.ProviderConfig
}

// NewOpenAIProvider creates a new OpenAI provider from the given config.
func NewOpenAIProvider(cfg llm.ProviderConfig) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, llm.TranslateError("openai", errMissingAPIKey)
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
	}

	if cfg.TextModel != "" {
		opts = append(opts, openai.WithModel(cfg.TextModel))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	return &OpenAIProvider{
		client: client,
		images: newOpenAIImageClient(apiKey, cfg.BaseURL),
		config: cfg,
	}, nil
}

// GenerateText sends a completion request and returns the full response.
func (p *OpenAIProvider) GenerateText(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
	model := req.Model
	if model == "" {
		model = p.config.TextModel
	}

	content := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	callOpts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := p.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	if len(resp.Choices) == 0 {
		return nil, llm.TranslateError("openai", errEmptyResponse)
	}

	choice := resp.Choices[0]
	return &llm.TextResult{
		Text:  choice.Content,
		Model: model,
		Usage: usageFromGenerationInfo(choice.GenerationInfo),
	}, nil
}

// GenerateImage generates exactly one image artifact for the request.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResult, error) {
	if req.Model == "" {
		req.Model = p.config.ImageModel
	}
	return p.images.Generate(ctx, req)
}

// usageFromGenerationInfo extracts token counts from langchaingo's
// provider-specific generation info map.
func usageFromGenerationInfo(info map[string]any) llm.TokenUsage {
	usage := llm.TokenUsage{}
	if info == nil {
		return usage
	}
	if v, ok := info["PromptTokens"].(int); ok {
		usage.InputTokens = v
	}
	if v, ok := info["CompletionTokens"].(int); ok {
		usage.OutputTokens = v
	}
	return usage
}
