package copywriter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/llm"
	"github.com/promoforge/promoforge/internal/llm/providers"
	"github.com/promoforge/promoforge/internal/types"
)

func TestLimitsFor(t *testing.T) {
	assert.Equal(t, 280, LimitsFor("twitter").CaptionMax)
	assert.Equal(t, 3000, LimitsFor("linkedin").BodyMax)
	assert.Equal(t, defaultLimits, LimitsFor("unknown-channel"))
}

func TestClamp_TruncatesOnRuneBoundary(t *testing.T) {
	c := Clamp(Copy{
		Caption: strings.Repeat("é", 300),
		Body:    "short",
	}, LimitsFor("twitter"))

	assert.Equal(t, 280, utf8.RuneCountInString(c.Caption))
	assert.True(t, utf8.ValidString(c.Caption))
	assert.Equal(t, "short", c.Body)
}

func TestClamp_WithinLimitsUntouched(t *testing.T) {
	in := Copy{Caption: "fits fine", Body: "also fits"}
	assert.Equal(t, in, Clamp(in, LimitsFor("twitter")))
}

func TestGenerateCopy_ClampsModelOutput(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		long := strings.Repeat("x", 500)
		return &llm.TextResult{Text: `{"headline": "H", "hook": "Hk", "body": "` + long + `", "cta": "Buy", "caption": "` + long + `", "hashtags": ["handmade"]}`}, nil
	}
	g := NewLLMGenerator(mock, nil)

	got, err := g.GenerateCopy(context.Background(), Request{Channel: "twitter", Objective: "sell mugs"})

	require.NoError(t, err)
	assert.Len(t, got.Caption, 280)
	assert.Len(t, got.Body, 280)
	assert.Equal(t, []string{"handmade"}, got.Hashtags)
}

func TestGenerateCopy_ModelFailureIsHardError(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return nil, errors.New("model down")
	}
	g := NewLLMGenerator(mock, nil)

	_, err := g.GenerateCopy(context.Background(), Request{Channel: "instagram"})

	assert.True(t, types.HasCode(err, types.COPY_GENERATION_FAILED))
}

func TestGenerateCopy_MissingCaptionIsHardError(t *testing.T) {
	mock := providers.NewMockService()
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return &llm.TextResult{Text: `{"headline": "H", "body": "b"}`}, nil
	}
	g := NewLLMGenerator(mock, nil)

	_, err := g.GenerateCopy(context.Background(), Request{Channel: "instagram"})

	assert.True(t, types.HasCode(err, types.COPY_GENERATION_FAILED))
}

func TestGenerateCopy_PromptCarriesLimitsAndContext(t *testing.T) {
	mock := providers.NewMockService()
	g := NewLLMGenerator(mock, nil)
	mock.GenerateTextFunc = func(ctx context.Context, req llm.TextRequest) (*llm.TextResult, error) {
		return &llm.TextResult{Text: `{"caption": "ok"}`}, nil
	}

	_, err := g.GenerateCopy(context.Background(), Request{
		Channel:    "pinterest",
		Objective:  "promote candles",
		ItemNames:  []string{"Soy candle"},
		BrandVoice: "warm and direct",
	})

	require.NoError(t, err)
	calls := mock.TextCalls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "500")
	assert.Contains(t, calls[0].Prompt, "Soy candle")
	assert.Contains(t, calls[0].Prompt, "warm and direct")
}
