package plan

import (
	"fmt"
	"strings"

	"github.com/promoforge/promoforge/internal/catalog"
	"github.com/promoforge/promoforge/internal/types"
)

// suggestionTemplate is one deterministic fallback suggestion shape.
type suggestionTemplate struct {
	Type        SuggestionType
	Title       string
	Description string
	Channel     string
	Confidence  int
	Tags        []string
}

// fallbackTemplates are applied round-robin when the model is unreachable
// or returns an unparsable response. They span all four suggestion types so
// the caller always sees variety.
var fallbackTemplates = []suggestionTemplate{
	{
		Type:        SuggestionSinglePost,
		Title:       "Product spotlight",
		Description: "A single hero shot highlighting one product's strongest feature.",
		Channel:     "instagram",
		Confidence:  60,
		Tags:        []string{"spotlight", "product"},
	},
	{
		Type:        SuggestionContentSeries,
		Title:       "Weekly feature series",
		Description: "A connected series introducing one product per post over a week.",
		Channel:     "instagram",
		Confidence:  55,
		Tags:        []string{"series", "weekly"},
	},
	{
		Type:        SuggestionCampaign,
		Title:       "Seasonal campaign",
		Description: "A short multi-post campaign tying your catalog to the current season.",
		Channel:     "facebook",
		Confidence:  50,
		Tags:        []string{"campaign", "seasonal"},
	},
	{
		Type:        SuggestionGapFill,
		Title:       "Behind the scenes",
		Description: "Fill a quiet slot with a behind-the-scenes look at how products are made.",
		Channel:     "instagram",
		Confidence:  45,
		Tags:        []string{"gap", "story"},
	},
	{
		Type:        SuggestionSinglePost,
		Title:       "Customer favorite",
		Description: "Showcase a best-selling product with social proof framing.",
		Channel:     "twitter",
		Confidence:  55,
		Tags:        []string{"social-proof"},
	},
	{
		Type:        SuggestionContentSeries,
		Title:       "How-to series",
		Description: "A multi-post series demonstrating practical uses for your products.",
		Channel:     "linkedin",
		Confidence:  50,
		Tags:        []string{"series", "how-to"},
	},
}

// FallbackSuggestions builds limit deterministic suggestions from the
// templates, attaching up to three real catalog items to each. The system is
// never fully blocked by model unavailability.
func FallbackSuggestions(items []catalog.Item, limit int) []Suggestion {
	if limit <= 0 {
		return []Suggestion{}
	}

	itemIDs := make([]types.ID, 0, 3)
	itemNames := make([]string, 0, 3)
	for i, item := range items {
		if i == 3 {
			break
		}
		itemIDs = append(itemIDs, item.ID)
		itemNames = append(itemNames, item.Name)
	}

	suggestions := make([]Suggestion, 0, limit)
	for i := 0; i < limit; i++ {
		tmpl := fallbackTemplates[i%len(fallbackTemplates)]

		description := tmpl.Description
		if len(itemNames) > 0 {
			description = fmt.Sprintf("%s Featuring: %s.", tmpl.Description, strings.Join(itemNames, ", "))
		}

		suggestions = append(suggestions, Suggestion{
			ID:           types.NewID(),
			Type:         tmpl.Type,
			Title:        tmpl.Title,
			Description:  description,
			CatalogItems: itemIDs,
			Channel:      tmpl.Channel,
			Confidence:   tmpl.Confidence,
			Reasoning:    "Template suggestion (model unavailable)",
			Tags:         tmpl.Tags,
		})
	}

	return suggestions
}

// FallbackPlan builds the fixed 3-post deterministic plan used when the
// plan-brief model call fails or returns an unparsable response. Items are
// spread across discrete posts by construction, one focus item per post.
func FallbackPlan(userID types.ID, suggestion Suggestion) *Plan {
	channel := suggestion.Channel
	if channel == "" {
		channel = "instagram"
	}

	objective := suggestion.Title
	if objective == "" {
		objective = "Promote featured catalog items"
	}

	posts := make([]PlanPost, 3)
	hooks := []string{"introduce", "show in use", "call to action"}
	for i := range posts {
		var itemIDs []types.ID
		if len(suggestion.CatalogItems) > 0 {
			itemIDs = []types.ID{suggestion.CatalogItems[i%len(suggestion.CatalogItems)]}
		}
		posts[i] = PlanPost{
			Index:          i,
			CatalogItemIDs: itemIDs,
			Prompt: fmt.Sprintf("Post %d of 3 for %q: a clean, well-lit product photo to %s the featured item.",
				i+1, objective, hooks[i]),
			Channel:     channel,
			ContentType: ContentImage,
			HookAngle:   hooks[i],
		}
	}

	return &Plan{
		ID:           types.NewID(),
		UserID:       userID,
		SuggestionID: suggestion.ID,
		Status:       StatusDraft,
		Objective:    objective,
		Cadence:      "3 posts over one week",
		Channel:      channel,
		ContentMix:   []ContentMixEntry{{Type: ContentImage, Count: 3}},
		Currency:     "USD",
		Posts:        posts,
	}
}
