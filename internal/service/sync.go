package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/repository"
)

// TokenSource provides the current access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// CatalogLister lists the catalogs a token can manage. *catalog.Client
// implements it.
type CatalogLister interface {
	ListCatalogs(ctx context.Context, token string) ([]catalog.Catalog, error)
}

// SyncService runs catalog syncs one at a time and remembers the last
// outcome.
type SyncService struct {
	listings repository.ListingRepository
	history  repository.SyncRepository
	tokens   TokenSource
	catalogs CatalogLister
	syncer   *catalog.Syncer
	logger   *slog.Logger

	mu      sync.Mutex
	running bool

	// base scopes background syncs; cancelled by Shutdown.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncService creates a new sync service.
func NewSyncService(
	listings repository.ListingRepository,
	history repository.SyncRepository,
	tokens TokenSource,
	catalogs CatalogLister,
	syncer *catalog.Syncer,
) *SyncService {
	base, cancel := context.WithCancel(context.Background())
	return &SyncService{
		listings: listings,
		history:  history,
		tokens:   tokens,
		catalogs: catalogs,
		syncer:   syncer,
		logger:   slog.With("component", "sync_service"),
		base:     base,
		cancel:   cancel,
	}
}

// Catalogs lists the catalogs available to the logged-in user.
func (s *SyncService) Catalogs(ctx context.Context) ([]catalog.Catalog, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	cats, err := s.catalogs.ListCatalogs(ctx, token)
	if err != nil {
		s.forgetRejectedToken(ctx, err)
		return nil, err
	}
	return cats, nil
}

// Running reports whether a sync is in progress.
func (s *SyncService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// prepare loads what a sync needs and checks it before anything is sent.
func (s *SyncService) prepare(ctx context.Context, catalogID string) (string, []*model.Listing, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return "", nil, err
	}
	listings, err := s.listings.LoadAll(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := catalog.CheckPreconditions(token, listings, catalogID); err != nil {
		return "", nil, err
	}
	return token, listings, nil
}

// Sync uploads every stored listing to catalogID and waits for the result.
func (s *SyncService) Sync(ctx context.Context, catalogID string) (*catalog.SyncOutcome, error) {
	return s.syncNow(ctx, catalogID, 0)
}

// SyncInline is Sync restricted to listings that fit in a single batch, so
// the caller never waits out the pause between batches.
func (s *SyncService) SyncInline(ctx context.Context, catalogID string) (*catalog.SyncOutcome, error) {
	return s.syncNow(ctx, catalogID, 1)
}

// syncNow runs a sync in the calling goroutine. maxBatches <= 0 is unlimited.
func (s *SyncService) syncNow(ctx context.Context, catalogID string, maxBatches int) (*catalog.SyncOutcome, error) {
	if !s.acquire() {
		return nil, ErrSyncInProgress
	}
	defer s.release()

	token, listings, err := s.prepare(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	if n := s.syncer.BatchCount(listings); maxBatches > 0 && n > maxBatches {
		return nil, &InlineSyncTooLargeError{Batches: n}
	}
	return s.run(ctx, token, listings, catalogID)
}

// Start checks the request and then runs the sync in the background. The
// result is available from LastOutcome once it finishes.
func (s *SyncService) Start(ctx context.Context, catalogID string) error {
	if !s.acquire() {
		return ErrSyncInProgress
	}

	token, listings, err := s.prepare(ctx, catalogID)
	if err != nil {
		s.release()
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()

		if _, err := s.run(s.base, token, listings, catalogID); err != nil {
			s.logger.Error("background sync failed", "catalog_id", catalogID, "error", err)
		}
	}()
	return nil
}

func (s *SyncService) run(ctx context.Context, token string, listings []*model.Listing, catalogID string) (*catalog.SyncOutcome, error) {
	outcome, err := s.syncer.Sync(ctx, token, listings, catalogID)
	if err != nil {
		return nil, err
	}

	// Persist even when ctx was cancelled mid-sync.
	if err := s.history.SaveLast(context.WithoutCancel(ctx), outcome); err != nil {
		s.logger.Error("failed to save sync outcome", "error", err)
	}
	for _, e := range outcome.Errors {
		if e.Message == catalog.MsgAuthFailed {
			s.forgetRejectedToken(context.WithoutCancel(ctx), catalog.ErrNotAuthenticated)
			break
		}
	}
	return outcome, nil
}

// LastOutcome returns the most recent sync result, or nil if none.
func (s *SyncService) LastOutcome(ctx context.Context) (*catalog.SyncOutcome, error) {
	out, err := s.history.LoadLast(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync: %w", err)
	}
	return out, nil
}

// Shutdown cancels any background sync and waits for it to record its
// outcome.
func (s *SyncService) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// forgetRejectedToken drops a token the remote API refused so the user is
// asked to log in again.
func (s *SyncService) forgetRejectedToken(ctx context.Context, err error) {
	if !catalog.IsAuthError(err) {
		return
	}
	if lerr := s.tokens.Logout(ctx); lerr != nil && !errors.Is(lerr, context.Canceled) {
		s.logger.Warn("failed to clear rejected token", "error", lerr)
	}
}
