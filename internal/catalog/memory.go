package catalog

import (
	"context"
	"sync"

	"github.com/promoforge/promoforge/internal/types"
)

// MemoryStore is an in-memory Store used by tests and local runs.
type MemoryStore struct {
	mu            sync.RWMutex
	items         map[types.ID]Item
	relationships []Relationship
}

// NewMemoryStore creates an empty in-memory catalog store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[types.ID]Item),
	}
}

// PutItem adds or replaces an item.
func (s *MemoryStore) PutItem(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// AddRelationship records a relationship between two items.
func (s *MemoryStore) AddRelationship(rel Relationship) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, rel)
}

// GetItemsByIDs returns the items for the given ids, skipping unknown ids.
func (s *MemoryStore) GetItemsByIDs(ctx context.Context, ids []types.ID) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// GetItem returns a single item, or nil when it does not exist.
func (s *MemoryStore) GetItem(ctx context.Context, id types.ID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, ok := s.items[id]; ok {
		return &item, nil
	}
	return nil, nil
}

// GetItemRelationships returns relationships touching any of the ids.
func (s *MemoryStore) GetItemRelationships(ctx context.Context, ids []types.ID) ([]Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var rels []Relationship
	for _, rel := range s.relationships {
		if wanted[rel.FromID] || wanted[rel.ToID] {
			rels = append(rels, rel)
		}
	}
	return rels, nil
}
