package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const locationKeyPrefix = "pref:location:"

// PreferenceStore keeps the last-used location filter per subject (user or client id).
type PreferenceStore struct {
	client *redis.Client
}

func NewPreferenceStore(client *redis.Client) *PreferenceStore {
	return &PreferenceStore{client: client}
}

func locationKey(subject string) string {
	return locationKeyPrefix + subject
}

// GetLocation returns "" when nothing is stored.
func (s *PreferenceStore) GetLocation(ctx context.Context, subject string) (string, error) {
	v, err := s.client.Get(ctx, locationKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", locationKey(subject), err)
	}
	return v, nil
}

// SetLocation stores the location without expiry; an empty value clears it.
func (s *PreferenceStore) SetLocation(ctx context.Context, subject, location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return s.client.Del(ctx, locationKey(subject)).Err()
	}
	return s.client.Set(ctx, locationKey(subject), location, 0).Err()
}
