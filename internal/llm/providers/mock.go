package providers

import (
	"context"
	"sync"

	"github.com/promoforge/promoforge/internal/llm"
)

// MockService is a configurable in-memory ModelService for tests and the
// "mock" provider setting. Behavior is driven by the function fields; unset
// fields return fixed canned results.
type MockService struct {
	mu sync.Mutex

	GenerateTextFunc  func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error)
	GenerateImageFunc func(ctx context.Context, req llm.ImageRequest) (*llm.ImageResult, error)

	textCalls  []llm.TextRequest
	imageCalls []llm.ImageRequest
}

// NewMockService creates a MockService with canned defaults.
func NewMockService() *MockService {
	return &MockService{}
}

// GenerateText records the call and delegates to GenerateTextFunc.
func (m *MockService) GenerateText(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
	m.mu.Lock()
	m.textCalls = append(m.textCalls, req)
	fn := m.GenerateTextFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &llm.TextResult{
		Text:  "{}",
		Model: "mock",
		Usage: llm.TokenUsage{InputTokens: 10, OutputTokens: 10},
	}, nil
}

// GenerateImage records the call and delegates to GenerateImageFunc.
func (m *MockService) GenerateImage(ctx context.Context, req llm.ImageRequest) (*llm.ImageResult, error) {
	m.mu.Lock()
	m.imageCalls = append(m.imageCalls, req)
	fn := m.GenerateImageFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &llm.ImageResult{
		Data:     []byte{0x89, 'P', 'N', 'G'},
		MIMEType: "image/png",
	}, nil
}

// TextCalls returns a copy of all recorded text requests.
func (m *MockService) TextCalls() []llm.TextRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.TextRequest, len(m.textCalls))
	copy(out, m.textCalls)
	return out
}

// ImageCalls returns a copy of all recorded image requests.
func (m *MockService) ImageCalls() []llm.ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.ImageRequest, len(m.imageCalls))
	copy(out, m.imageCalls)
	return out
}
