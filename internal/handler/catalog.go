package handler

import (
	"net/http"
	"strconv"

	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/pkg/apierror"
	"marketplace-bulk-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler handles catalog listing and sync requests.
type CatalogHandler struct {
	syncs *service.SyncService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(syncs *service.SyncService) *CatalogHandler {
	return &CatalogHandler{syncs: syncs}
}

// SyncStarted is returned when a sync runs in the background.
type SyncStarted struct {
	CatalogID string `json:"catalog_id"`
	Status    string `json:"status"`
}

// List handles GET /api/v1/catalogs
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.syncs.Catalogs(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, cats)
}

// Sync handles POST /api/v1/catalogs/{catalog_id}/sync. The sync runs in
// the background unless ?wait=true is given, which only accepts listing sets
// that fit in one batch.
func (h *CatalogHandler) Sync(w http.ResponseWriter, r *http.Request) {
	catalogID := chi.URLParam(r, "catalog_id")

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if wait {
		out, err := h.syncs.SyncInline(r.Context(), catalogID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.OK(w, out)
		return
	}

	if err := h.syncs.Start(r.Context(), catalogID); err != nil {
		writeError(w, r, err)
		return
	}
	response.Accepted(w, SyncStarted{CatalogID: catalogID, Status: "started"})
}

// Last handles GET /api/v1/sync/last
func (h *CatalogHandler) Last(w http.ResponseWriter, r *http.Request) {
	out, err := h.syncs.LastOutcome(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		writeError(w, r, apierror.NotFound("No sync has run yet"))
		return
	}
	response.OK(w, out)
}
