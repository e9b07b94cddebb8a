package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"CadenceFM/logger"
	"CadenceFM/model"

	"github.com/redis/go-redis/v9"
)

// RedisCatalogRepository stores the catalog document as one JSON value under
// a single key. SET replaces the whole value atomically, so no extra locking
// is needed for the atomic-replace guarantee.
type RedisCatalogRepository struct {
	client *redis.Client
	key    string
}

// NewRedisCatalogRepository creates a Redis-backed catalog store.
func NewRedisCatalogRepository(client *redis.Client, key string) *RedisCatalogRepository {
	return &RedisCatalogRepository{client: client, key: key}
}

// ReadAll returns the current event list. A missing key is an empty catalog;
// a corrupt value is logged and degraded to empty.
func (r *RedisCatalogRepository) ReadAll(ctx context.Context) ([]model.Event, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog key %s: %w", r.key, err)
	}

	events := make([]model.Event, 0)
	if err := json.Unmarshal(data, &events); err != nil {
		logger.Warn("Catalog document is corrupt, treating as empty",
			logger.String("key", r.key),
			logger.ErrorField(err))
		return []model.Event{}, nil
	}
	return events, nil
}

// ReplaceAll overwrites the catalog document with the given list.
func (r *RedisCatalogRepository) ReplaceAll(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog document: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write catalog key %s: %w", r.key, err)
	}
	return nil
}
