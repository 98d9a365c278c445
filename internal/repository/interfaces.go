package repository

import (
	"context"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/sheet"
)

// ListingRepository defines access to the persisted listing set and the
// remembered sheet layout.
type ListingRepository interface {
	// LoadAll returns every listing in insertion order. Unreadable data is
	// discarded and reported as an empty set.
	LoadAll(ctx context.Context) ([]*model.Listing, error)

	// ReplaceAll overwrites the whole listing set.
	ReplaceAll(ctx context.Context, listings []*model.Listing) error

	// FindByID returns one listing. Returns ErrListingNotFound if absent.
	FindByID(ctx context.Context, id string) (*model.Listing, error)

	// Save inserts a listing or replaces the one with the same id.
	Save(ctx context.Context, listing *model.Listing) error

	// DeleteByID removes a listing. Returns ErrListingNotFound if absent.
	DeleteByID(ctx context.Context, id string) error

	// LoadHeaderRow returns the remembered header, or the default one.
	LoadHeaderRow(ctx context.Context) ([]string, error)

	// SaveHeaderRow remembers the header of the last import.
	SaveHeaderRow(ctx context.Context, header []string) error

	// LoadPreHeaderRows returns the remembered pre-header rows, or the
	// default banner block.
	LoadPreHeaderRows(ctx context.Context) ([]sheet.Row, error)

	// SavePreHeaderRows remembers the pre-header rows of the last import.
	SavePreHeaderRows(ctx context.Context, rows []sheet.Row) error

	// ResetLayout forgets the remembered layout.
	ResetLayout(ctx context.Context) error
}

// SyncRepository keeps the outcome of the most recent catalog sync.
type SyncRepository interface {
	SaveLast(ctx context.Context, outcome *catalog.SyncOutcome) error

	// LoadLast returns nil, nil when no sync has completed yet.
	LoadLast(ctx context.Context) (*catalog.SyncOutcome, error)
}
