package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"marketplace-bulk-api/internal/model"
)

// DefaultBatchInterval keeps successive calls under 200 per hour.
const DefaultBatchInterval = 18 * time.Second

// MsgSyncCancelled is recorded for listings that were never attempted.
const MsgSyncCancelled = "sync cancelled"

// Sync request errors, raised before any remote call.
var (
	ErrNoCatalog     = errors.New("please select a catalog")
	ErrNothingToSync = errors.New("no listings to sync")
)

// PreconditionError reports listings that cannot be synced as they are.
type PreconditionError struct {
	Count int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%d listing(s) missing required fields (URL and Image URL). Please add them before syncing.", e.Count)
}

// Uploader sends one items_batch call. *Client implements it.
type Uploader interface {
	ItemsBatch(ctx context.Context, token, catalogID string, requests []BatchRequest) (*BatchResponse, error)
}

// SyncError is a failure attached to one listing.
type SyncError struct {
	ListingID string `json:"listing_id"`
	Message   string `json:"message"`
}

// SyncOutcome summarises a finished sync.
type SyncOutcome struct {
	Success      bool        `json:"success"`
	CatalogID    string      `json:"catalog_id"`
	TotalItems   int         `json:"total_items"`
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	Batches      int         `json:"batches"`
	Errors       []SyncError `json:"errors"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SyncerConfig holds the batching and pacing settings.
type SyncerConfig struct {
	MaxItems int
	MaxBytes int
	Interval time.Duration
	Sleep    SleepFunc
}

// Syncer sends listings to a catalog batch by batch.
type Syncer struct {
	uploader Uploader
	maxItems int
	maxBytes int
	interval time.Duration
	sleep    SleepFunc
	logger   *slog.Logger
}

// NewSyncer creates a syncer. Zero config values fall back to the catalog
// limits.
func NewSyncer(uploader Uploader, cfg SyncerConfig) *Syncer {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = MaxItemsPerBatch
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = MaxBatchBytes
	}
	if cfg.Interval < 0 {
		cfg.Interval = 0
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}

	return &Syncer{
		uploader: uploader,
		maxItems: cfg.MaxItems,
		maxBytes: cfg.MaxBytes,
		interval: cfg.Interval,
		sleep:    cfg.Sleep,
		logger:   slog.With("component", "catalog_syncer"),
	}
}

// BatchCount returns how many items_batch calls syncing listings would take.
func (s *Syncer) BatchCount(listings []*model.Listing) int {
	return len(MakeBatches(listings, s.maxItems, s.maxBytes))
}

// CheckPreconditions validates a sync request without calling the API.
func CheckPreconditions(token string, listings []*model.Listing, catalogID string) error {
	if token == "" {
		return ErrNotAuthenticated
	}
	if strings.TrimSpace(catalogID) == "" {
		return ErrNoCatalog
	}
	if len(listings) == 0 {
		return ErrNothingToSync
	}

	missing := 0
	for _, l := range listings {
		if strings.TrimSpace(l.URL) == "" || strings.TrimSpace(l.ImageURL) == "" {
			missing++
		}
	}
	if missing > 0 {
		return &PreconditionError{Count: missing}
	}
	return nil
}

// Sync uploads listings to catalogID. Request-level problems are returned as
// an error before anything is sent. Once sending starts, failures are
// recorded per listing in the outcome and the remaining batches still run.
// Cancelling ctx marks every listing not yet sent as failed.
func (s *Syncer) Sync(ctx context.Context, token string, listings []*model.Listing, catalogID string) (*SyncOutcome, error) {
	if err := CheckPreconditions(token, listings, catalogID); err != nil {
		return nil, err
	}

	batches := MakeBatches(listings, s.maxItems, s.maxBytes)
	out := &SyncOutcome{
		CatalogID:  catalogID,
		TotalItems: len(listings),
		Batches:    len(batches),
		Errors:     []SyncError{},
		StartedAt:  time.Now().UTC(),
	}

	s.logger.Info("sync started",
		"catalog_id", catalogID,
		"listings", len(listings),
		"batches", len(batches),
	)

	for i, b := range batches {
		if ctx.Err() != nil {
			s.failRemaining(out, batches[i:], MsgSyncCancelled)
			break
		}

		s.sendBatch(ctx, out, token, catalogID, i, b)

		if i < len(batches)-1 {
			if err := s.sleep(ctx, s.interval); err != nil {
				s.failRemaining(out, batches[i+1:], MsgSyncCancelled)
				break
			}
		}
	}

	out.Success = out.ErrorCount == 0
	out.FinishedAt = time.Now().UTC()

	s.logger.Info("sync finished",
		"catalog_id", catalogID,
		"succeeded", out.SuccessCount,
		"failed", out.ErrorCount,
		"duration", out.FinishedAt.Sub(out.StartedAt).Round(time.Millisecond),
	)
	return out, nil
}

func (s *Syncer) sendBatch(ctx context.Context, out *SyncOutcome, token, catalogID string, index int, b Batch) {
	log := s.logger.With("batch", index+1, "items", len(b.Listings), "bytes", b.SizeBytes)
	if b.Oversized(s.maxBytes) {
		log.Warn("sending listing larger than batch size limit", "limit", s.maxBytes)
	}

	requests := make([]BatchRequest, len(b.Listings))
	for i, l := range b.Listings {
		requests[i] = NewCreateRequest(l)
	}

	resp, err := s.uploader.ItemsBatch(ctx, token, catalogID, requests)
	if err != nil {
		log.Error("batch failed", "error", err)
		s.failRemaining(out, []Batch{b}, err.Error())
		return
	}

	rejected := make(map[string]string)
	warnings := 0
	for _, st := range resp.ValidationStatus {
		warnings += len(st.Warnings)
		if len(st.Errors) == 0 {
			continue
		}
		msgs := make([]string, len(st.Errors))
		for i, e := range st.Errors {
			msgs[i] = e.Message
		}
		rejected[st.RetailerID] = strings.Join(msgs, ", ")
	}

	for _, l := range b.Listings {
		if msg, ok := rejected[l.ID]; ok {
			out.ErrorCount++
			out.Errors = append(out.Errors, SyncError{ListingID: l.ID, Message: msg})
			continue
		}
		out.SuccessCount++
	}

	log.Info("batch sent", "rejected", len(rejected), "warnings", warnings)
}

func (s *Syncer) failRemaining(out *SyncOutcome, batches []Batch, msg string) {
	for _, b := range batches {
		for _, l := range b.Listings {
			out.ErrorCount++
			out.Errors = append(out.Errors, SyncError{ListingID: l.ID, Message: msg})
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
