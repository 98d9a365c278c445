package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/sheet"
	"marketplace-bulk-api/internal/store"
)

// ErrListingNotFound is returned when no listing has the requested id.
var ErrListingNotFound = errors.New("listing not found")

// StoreListingRepository implements ListingRepository as JSON documents in a
// key-value store.
type StoreListingRepository struct {
	store  store.Store
	keys   Keys
	logger *slog.Logger

	// mu serialises read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewStoreListingRepository creates a listing repository on s.
func NewStoreListingRepository(s store.Store, keys Keys) *StoreListingRepository {
	return &StoreListingRepository{
		store:  s,
		keys:   keys,
		logger: slog.With("component", "listing_repository"),
	}
}

// LoadAll returns every listing.
func (r *StoreListingRepository) LoadAll(ctx context.Context) ([]*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadAll(ctx)
}

func (r *StoreListingRepository) loadAll(ctx context.Context) ([]*model.Listing, error) {
	data, err := r.store.Get(ctx, r.keys.Listings())
	if errors.Is(err, store.ErrNotFound) {
		return []*model.Listing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}

	var listings []*model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		r.logger.Error("stored listings are unreadable, resetting to empty", "error", err, "bytes", len(data))
		if err := r.store.Set(ctx, r.keys.Listings(), []byte("[]"), 0); err != nil {
			return nil, fmt.Errorf("failed to reset listings: %w", err)
		}
		return []*model.Listing{}, nil
	}

	out := listings[:0]
	for _, l := range listings {
		if l != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

// ReplaceAll overwrites the listing set.
func (r *StoreListingRepository) ReplaceAll(ctx context.Context, listings []*model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.replaceAll(ctx, listings)
}

func (r *StoreListingRepository) replaceAll(ctx context.Context, listings []*model.Listing) error {
	if listings == nil {
		listings = []*model.Listing{}
	}
	data, err := json.Marshal(listings)
	if err != nil {
		return fmt.Errorf("failed to encode listings: %w", err)
	}
	if err := r.store.Set(ctx, r.keys.Listings(), data, 0); err != nil {
		return fmt.Errorf("failed to save listings: %w", err)
	}
	return nil
}

// FindByID returns the listing with the given id.
func (r *StoreListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	listings, err := r.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range listings {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, ErrListingNotFound
}

// Save inserts or replaces a listing by id. New listings are appended.
func (r *StoreListingRepository) Save(ctx context.Context, listing *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listings, err := r.loadAll(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, l := range listings {
		if l.ID == listing.ID {
			listings[i] = listing
			replaced = true
			break
		}
	}
	if !replaced {
		listings = append(listings, listing)
	}
	return r.replaceAll(ctx, listings)
}

// DeleteByID removes a listing.
func (r *StoreListingRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listings, err := r.loadAll(ctx)
	if err != nil {
		return err
	}

	kept := make([]*model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	if len(kept) == len(listings) {
		return ErrListingNotFound
	}
	return r.replaceAll(ctx, kept)
}

// LoadHeaderRow returns the remembered header row. A missing, unreadable
// or unusable header yields the default.
func (r *StoreListingRepository) LoadHeaderRow(ctx context.Context) ([]string, error) {
	var header []string
	found, err := r.loadJSON(ctx, r.keys.HeaderRow(), &header)
	if err != nil {
		return nil, err
	}
	if !found || sheet.FindHeaderRow([]sheet.Row{toRow(header)}) != 0 {
		return sheet.DefaultHeaderRow(), nil
	}
	return header, nil
}

// SaveHeaderRow remembers a header row.
func (r *StoreListingRepository) SaveHeaderRow(ctx context.Context, header []string) error {
	return r.saveJSON(ctx, r.keys.HeaderRow(), header)
}

// LoadPreHeaderRows returns the remembered pre-header rows or the default.
// An import without any pre-header rows is remembered as such.
func (r *StoreListingRepository) LoadPreHeaderRows(ctx context.Context) ([]sheet.Row, error) {
	var rows []sheet.Row
	found, err := r.loadJSON(ctx, r.keys.PreHeaderRows(), &rows)
	if err != nil {
		return nil, err
	}
	if !found {
		return sheet.DefaultPreHeaderRows(), nil
	}
	if rows == nil {
		rows = []sheet.Row{}
	}
	return rows, nil
}

// SavePreHeaderRows remembers the pre-header rows.
func (r *StoreListingRepository) SavePreHeaderRows(ctx context.Context, rows []sheet.Row) error {
	if rows == nil {
		rows = []sheet.Row{}
	}
	return r.saveJSON(ctx, r.keys.PreHeaderRows(), rows)
}

// ResetLayout deletes the remembered layout so defaults apply again.
func (r *StoreListingRepository) ResetLayout(ctx context.Context) error {
	if err := r.store.Delete(ctx, r.keys.HeaderRow()); err != nil {
		return err
	}
	return r.store.Delete(ctx, r.keys.PreHeaderRows())
}

// loadJSON decodes key into v. It reports false when the key is missing or
// its content cannot be decoded.
func (r *StoreListingRepository) loadJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		r.logger.Warn("ignoring unreadable stored value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (r *StoreListingRepository) saveJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func toRow(header []string) sheet.Row {
	row := make(sheet.Row, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

var _ ListingRepository = (*StoreListingRepository)(nil)
