package handler

import (
	"net/http"
	"time"

	"marketplace-bulk-api/internal/logging"
	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/internal/store"
	"marketplace-bulk-api/pkg/response"
)

// AdminHandler reports on the listing set, sync worker and store backend.
type AdminHandler struct {
	store     store.Store
	storeType string
	listings  *service.ListingService
	syncs     *service.SyncService
	started   time.Time
}

// NewAdminHandler creates a new admin handler. Any dependency may be nil.
func NewAdminHandler(
	st store.Store,
	storeType string,
	listings *service.ListingService,
	syncs *service.SyncService,
) *AdminHandler {
	return &AdminHandler{
		store:     st,
		storeType: storeType,
		listings:  listings,
		syncs:     syncs,
		started:   time.Now(),
	}
}

// StoreStats describes the key-value backend.
type StoreStats struct {
	Type    string         `json:"type"`
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// SyncStats describes the catalog sync worker.
type SyncStats struct {
	Running     bool       `json:"running"`
	LastSuccess *bool      `json:"last_success,omitempty"`
	LastErrors  int        `json:"last_error_count"`
	LastTotal   int        `json:"last_total_items"`
	LastFinish  *time.Time `json:"last_finished_at,omitempty"`
}

// AdminStats is the body of GET /api/v1/admin/stats.
type AdminStats struct {
	Listings *service.ListingStats `json:"listings,omitempty"`
	Sync     *SyncStats            `json:"sync,omitempty"`
	Store    StoreStats            `json:"store"`
	Uptime   string                `json:"uptime"`
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.FromContext(ctx)

	out := AdminStats{
		Store:  StoreStats{Type: h.storeType, Status: "not_configured"},
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}

	if h.store != nil {
		details, err := h.store.Stats(ctx)
		if err != nil {
			log.Warn("store stats unavailable", "error", err)
			out.Store.Status, out.Store.Error = "error", err.Error()
		} else {
			out.Store.Status, out.Store.Details = "connected", details
		}
	}

	if h.listings != nil {
		ls, err := h.listings.Stats(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out.Listings = ls
	}

	if h.syncs != nil {
		ss := &SyncStats{Running: h.syncs.Running()}
		if last, err := h.syncs.LastOutcome(ctx); err == nil && last != nil {
			ss.LastSuccess = &last.Success
			ss.LastErrors = last.ErrorCount
			ss.LastTotal = last.TotalItems
			ss.LastFinish = &last.FinishedAt
		}
		out.Sync = ss
	}

	response.OK(w, out)
}
