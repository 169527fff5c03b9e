package llm

// TokenUsage is the number of tokens consumed by a single model call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Total returns the combined input and output token count.
func (u TokenUsage) Total() int {
	return u.InputTokens + u.OutputTokens
}

// TextRequest is a request for a single text completion.
type TextRequest struct {
	// Model is the model identifier (e.g. "gpt-4o-mini"). Empty selects the
	// provider's configured default.
	Model string `json:"model,omitempty"`

	// System is an optional system prompt establishing the model's role.
	System string `json:"system,omitempty"`

	// Prompt is the user-facing prompt text.
	Prompt string `json:"prompt"`

	// Temperature controls sampling randomness in [0,1].
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens bounds the completion length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// TextResult is the outcome of a text completion call.
type TextResult struct {
	Text  string     `json:"text"`
	Model string     `json:"model"`
	Usage TokenUsage `json:"usage"`
}

// ImageRequest is a request for a single image generation.
type ImageRequest struct {
	// Model is the image model identifier. Empty selects the provider default.
	Model string `json:"model,omitempty"`

	// Prompt is the fully assembled generation prompt.
	Prompt string `json:"prompt"`

	// InputImages are reference images, in priority order, supplied to
	// providers that support image conditioning.
	InputImages [][]byte `json:"-"`

	// Resolution is a tier label ("1K", "2K", "4K") mapped to provider sizes.
	Resolution string `json:"resolution,omitempty"`
}

// ImageResult is the outcome of an image generation call.
// Exactly one artifact is returned per call.
type ImageResult struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`

	// ConversationState is an opaque provider token that allows a later
	// edit of this artifact to continue the same generation context.
	ConversationState string `json:"conversation_state,omitempty"`

	Usage TokenUsage `json:"usage"`
}
