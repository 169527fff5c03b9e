package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/promoforge/promoforge/internal/llm"
)

const defaultImagesURL = "https://api.openai.com/v1/images/generations"

var (
	errMissingAPIKey = errors.New("missing API key")
	errEmptyResponse = errors.New("provider returned no choices")
)

// openaiImageClient is a direct HTTP client for the OpenAI images API.
// langchaingo has no image generation surface, so this endpoint is called
// directly.
type openaiImageClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func newOpenAIImageClient(apiKey, baseURL string) *openaiImageClient {
	url := defaultImagesURL
	if baseURL != "" {
		url = baseURL + "/images/generations"
	}
	return &openaiImageClient{
		apiKey: apiKey,
		url:    url,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: slog.Default(),
	}
}

type imageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

type imageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// Generate requests exactly one image and returns the decoded bytes.
func (c *openaiImageClient) Generate(ctx context.Context, req llm.ImageRequest) (*llm.ImageResult, error) {
	if len(req.InputImages) > 0 {
		// The generations endpoint takes no conditioning images.
		c.logger.Warn("images endpoint cannot take reference images, generating from prompt only",
			"dropped_images", len(req.InputImages))
	}

	body := imageGenerationRequest{
		Model:          req.Model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           resolutionToSize(req.Resolution),
		ResponseFormat: "b64_json",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.TranslateError("openai",
			fmt.Errorf("images API returned %d: %s", resp.StatusCode, truncateBody(respBody)))
	}

	var parsed imageGenerationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	if len(parsed.Data) != 1 {
		return nil, llm.TranslateError("openai",
			fmt.Errorf("expected exactly one image, got %d", len(parsed.Data)))
	}

	data, err := base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
	if err != nil {
		return nil, llm.TranslateError("openai", err)
	}

	return &llm.ImageResult{
		Data:     data,
		MIMEType: "image/png",
		// The generations endpoint is stateless; this token only names the
		// creating batch so later edits of the artifact can cite it.
		ConversationState: fmt.Sprintf("openai:%d", parsed.Created),
	}, nil
}

// resolutionToSize maps estimator resolution tiers onto API size strings.
func resolutionToSize(resolution string) string {
	switch resolution {
	case "4K":
		return "1792x1024"
	case "2K":
		return "1024x1024"
	case "1K":
		return "512x512"
	default:
		return "1024x1024"
	}
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
