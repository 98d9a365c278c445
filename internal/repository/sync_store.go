package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/store"
)

// StoreSyncRepository keeps the last sync outcome in a key-value store.
type StoreSyncRepository struct {
	store store.Store
	keys  Keys
}

// NewStoreSyncRepository creates a sync repository on s.
func NewStoreSyncRepository(s store.Store, keys Keys) *StoreSyncRepository {
	return &StoreSyncRepository{store: s, keys: keys}
}

// SaveLast records an outcome, replacing the previous one.
func (r *StoreSyncRepository) SaveLast(ctx context.Context, outcome *catalog.SyncOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode sync outcome: %w", err)
	}
	return r.store.Set(ctx, r.keys.LastSync(), data, 0)
}

// LoadLast returns the most recent outcome.
func (r *StoreSyncRepository) LoadLast(ctx context.Context) (*catalog.SyncOutcome, error) {
	data, err := r.store.Get(ctx, r.keys.LastSync())
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync outcome: %w", err)
	}

	var out catalog.SyncOutcome
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode sync outcome: %w", err)
	}
	return &out, nil
}

var _ SyncRepository = (*StoreSyncRepository)(nil)
