package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/types"
)

func imageServer(t *testing.T, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1700000000,
			"data": []map[string]string{
				{"b64_json": base64.StdEncoding.EncodeToString([]byte("img-bytes"))},
			},
		})
	}))
}

func TestImageClient_Generate(t *testing.T) {
	var gotBody map[string]any
	srv := imageServer(t, &gotBody)
	defer srv.Close()

	c := newOpenAIImageClient("key", srv.URL)

	result, err := c.Generate(context.Background(), llm.ImageRequest{
		Model:      "gpt-image-1",
		Prompt:     "mug on a desk",
		Resolution: "2K",
	})

	require.NoError(t, err)
	assert.Equal(t, []byte("img-bytes"), result.Data)
	assert.Equal(t, "image/png", result.MIMEType)
	assert.Equal(t, "openai:1700000000", result.ConversationState)
	assert.Equal(t, "1024x1024", gotBody["size"])
	assert.EqualValues(t, 1, gotBody["n"])
}

func TestImageClient_WarnsWhenReferenceImagesDropped(t *testing.T) {
	var gotBody map[string]any
	srv := imageServer(t, &gotBody)
	defer srv.Close()

	var logs bytes.Buffer
	c := newOpenAIImageClient("key", srv.URL)
	c.logger = slog.New(slog.NewTextHandler(&logs, nil))

	_, err := c.Generate(context.Background(), llm.ImageRequest{
		Model:       "gpt-image-1",
		Prompt:      "mug on a desk",
		InputImages: [][]byte{{0x01}, {0x02}},
	})

	require.NoError(t, err)
	for key := range gotBody {
		assert.NotContains(t, key, "image", "no image payload reaches the generations endpoint")
	}
	assert.Contains(t, logs.String(), "generating from prompt only")
	assert.Contains(t, logs.String(), "dropped_images=2")
}

func TestImageClient_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newOpenAIImageClient("key", srv.URL)

	_, err := c.Generate(context.Background(), llm.ImageRequest{Prompt: "mug"})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.MODEL_CALL_FAILED))

	var fe *types.ForgeError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Retryable, "429 is transient")
}
