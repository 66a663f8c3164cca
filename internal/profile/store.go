package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nothingmachine/chat-backend/internal/cache/redis"
)

const profileKey = "nothing-machine:profile"

// Profile is the persisted user profile blob.
type Profile struct {
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

// Store persists the user profile as a JSON blob in Redis. A nil Redis
// client puts the store into no-op mode: Get returns no profile and Set and
// Clear silently succeed.
type Store struct {
	cache *redis.Client
}

// NewStore creates a profile store. cache may be nil.
func NewStore(cache *redis.Client) *Store {
	return &Store{cache: cache}
}

// Get returns the stored profile, or nil when none is set or the store is
// unconfigured.
func (s *Store) Get(ctx context.Context) (*Profile, error) {
	if s.cache == nil {
		return nil, nil
	}

	raw, ok, err := s.cache.Get(ctx, profileKey)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// Set stores the profile. No-op when unconfigured.
func (s *Store) Set(ctx context.Context, p Profile) error {
	if s.cache == nil {
		return nil
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.cache.Set(ctx, profileKey, string(raw), 0); err != nil {
		return fmt.Errorf("set profile: %w", err)
	}
	return nil
}

// Clear removes the stored profile. No-op when unconfigured.
func (s *Store) Clear(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, profileKey); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}
