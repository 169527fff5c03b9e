package llm

// ProviderConfig holds connection settings for a model provider.
// One handle is constructed per process and passed into each component;
// there is no package-level client singleton.
type ProviderConfig struct {
	// Provider selects the implementation ("openai", "mock").
	Provider string `mapstructure:"provider" yaml:"provider" validate:"required"`

	// APIKey authenticates against the provider. Empty falls back to the
	// provider's conventional environment variable.
	APIKey string `mapstructure:"api_key" yaml:"api_key"`

	// BaseURL overrides the provider endpoint (proxies, compatible servers).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TextModel is the default model for text generation.
	TextModel string `mapstructure:"text_model" yaml:"text_model"`

	// ImageModel is the default model for image generation.
	ImageModel string `mapstructure:"image_model" yaml:"image_model"`

	// Temperature is the default sampling temperature in [0,1].
	Temperature float64 `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=1"`
}
