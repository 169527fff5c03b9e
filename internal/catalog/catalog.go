// Package catalog is the boundary to the product catalog. The engine only
// reads items and item relationships; catalog management lives elsewhere.
package catalog

import (
	"context"

	"github.com/promoforge/promoforge/internal/types"
)

// Item is one catalog entry as the engine sees it.
type Item struct {
	ID          types.ID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Relationship links two catalog items (complements, same collection, etc.).
type Relationship struct {
	FromID types.ID `json:"from_id"`
	ToID   types.ID `json:"to_id"`
	Kind   string   `json:"kind"`
}

// Store provides read access to catalog items.
type Store interface {
	// GetItemsByIDs returns the items for the given ids, skipping unknown ids.
	GetItemsByIDs(ctx context.Context, ids []types.ID) ([]Item, error)

	// GetItem returns a single item, or nil when it does not exist.
	GetItem(ctx context.Context, id types.ID) (*Item, error)

	// GetItemRelationships returns relationships touching any of the ids.
	GetItemRelationships(ctx context.Context, ids []types.ID) ([]Relationship, error)
}
