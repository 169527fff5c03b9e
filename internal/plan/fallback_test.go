package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promoforge/promoforge/internal/catalog"
	"github.com/promoforge/promoforge/internal/types"
)

func TestFallbackSuggestions_ExactlyLimit(t *testing.T) {
	for _, limit := range []int{1, 3, 6, 10} {
		got := FallbackSuggestions(nil, limit)
		assert.Len(t, got, limit, "limit %d", limit)
	}
}

func TestFallbackSuggestions_ZeroOrNegativeLimit(t *testing.T) {
	assert.Empty(t, FallbackSuggestions(nil, 0))
	assert.Empty(t, FallbackSuggestions(nil, -4))
}

func TestFallbackSuggestions_SpansMultipleTypes(t *testing.T) {
	got := FallbackSuggestions(nil, 6)

	seen := make(map[SuggestionType]bool)
	for _, s := range got {
		seen[s.Type] = true
	}
	assert.Len(t, seen, 4, "six templates should span all four suggestion types")
}

func TestFallbackSuggestions_AttachesUpToThreeItems(t *testing.T) {
	items := []catalog.Item{
		{ID: types.NewID(), Name: "Mug"},
		{ID: types.NewID(), Name: "Tote"},
		{ID: types.NewID(), Name: "Candle"},
		{ID: types.NewID(), Name: "Poster"},
	}

	got := FallbackSuggestions(items, 2)

	require.Len(t, got, 2)
	for _, s := range got {
		assert.Len(t, s.CatalogItems, 3)
		assert.Contains(t, s.Description, "Mug")
		assert.NotContains(t, s.Description, "Poster")
	}
}

func TestFallbackSuggestions_EveryFieldPopulated(t *testing.T) {
	for _, s := range FallbackSuggestions(nil, 6) {
		assert.False(t, s.ID.IsZero())
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Description)
		assert.NotEmpty(t, s.Channel)
		assert.Positive(t, s.Confidence)
	}
}

func TestFallbackPlan_ThreeDiscretePosts(t *testing.T) {
	userID := types.NewID()
	suggestion := Suggestion{
		ID:           types.NewID(),
		Type:         SuggestionContentSeries,
		Title:        "Weekly feature series",
		Channel:      "instagram",
		CatalogItems: []types.ID{types.NewID(), types.NewID()},
	}

	p := FallbackPlan(userID, suggestion)

	require.NoError(t, p.Validate())
	require.Len(t, p.Posts, 3)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, suggestion.ID, p.SuggestionID)

	for i, post := range p.Posts {
		assert.Equal(t, i, post.Index)
		assert.Equal(t, "instagram", post.Channel)
		assert.Equal(t, ContentImage, post.ContentType)
		assert.NotEmpty(t, post.Prompt)
		// One focus item per post, never a composite of all items.
		assert.Len(t, post.CatalogItemIDs, 1)
	}
}

func TestFallbackPlan_DefaultsWithEmptySuggestion(t *testing.T) {
	p := FallbackPlan(types.NewID(), Suggestion{})

	require.NoError(t, p.Validate())
	assert.Equal(t, "instagram", p.Channel)
	assert.NotEmpty(t, p.Objective)
	for _, post := range p.Posts {
		assert.Empty(t, post.CatalogItemIDs)
	}
}
