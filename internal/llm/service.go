package llm

import "context"

// ModelService is the narrow boundary to the generative model provider.
// The engine consumes text generation (suggestions, plan briefs, scoring,
// critique, copy) and image generation (artifacts) through this interface
// and nothing else; provider internals stay behind it.
type ModelService interface {
	// GenerateText sends a completion request and returns the full response.
	// Failures are returned as errors, never as empty results.
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)

	// GenerateImage generates exactly one image artifact for the request.
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}
