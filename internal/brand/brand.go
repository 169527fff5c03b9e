// Package brand is the boundary to brand-profile storage.
package brand

import (
	"context"
	"sync"

	"github.com/promoforge/promoforge/internal/types"
)

// Profile captures a user's brand identity as consumed by prompt assembly
// and copywriting.
type Profile struct {
	UserID     types.ID `json:"user_id"`
	Name       string   `json:"name"`
	Voice      string   `json:"voice"`
	Colors     []string `json:"colors,omitempty"`
	StyleNotes string   `json:"style_notes,omitempty"`
	Audience   string   `json:"audience,omitempty"`
}

// Store provides read access to brand profiles.
type Store interface {
	// GetBrandProfile returns the user's profile, or nil when none exists.
	GetBrandProfile(ctx context.Context, userID types.ID) (*Profile, error)
}

// MemoryStore is an in-memory Store used by tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[types.ID]Profile
}

// NewMemoryStore creates an empty in-memory brand store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[types.ID]Profile)}
}

// PutProfile adds or replaces a profile.
func (s *MemoryStore) PutProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// GetBrandProfile returns the user's profile, or nil when none exists.
func (s *MemoryStore) GetBrandProfile(ctx context.Context, userID types.ID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.profiles[userID]; ok {
		return &p, nil
	}
	return nil, nil
}
