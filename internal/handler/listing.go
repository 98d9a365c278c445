package handler

import (
	"net/http"

	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/pkg/apierror"
	"marketplace-bulk-api/pkg/response"
	"marketplace-bulk-api/pkg/uid"

	"github.com/go-chi/chi/v5"
)

// ListingHandler handles listing CRUD requests.
type ListingHandler struct {
	listings *service.ListingService
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// ValidateResponse is the result of a draft validation.
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// List handles GET /api/v1/listings
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	meta := service.ListingStats{Total: len(items)}
	for _, it := range items {
		if it.Valid {
			meta.Valid++
		}
	}
	meta.Invalid = meta.Total - meta.Valid

	response.JSONWithMeta(w, http.StatusOK, items, meta)
}

// listingID reads the {id} path parameter. Listing ids are always UUIDs,
// so anything else cannot exist.
func listingID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !uid.IsValid(id) {
		writeError(w, r, apierror.NotFound("Listing not found"))
		return "", false
	}
	return id, true
}

// Get handles GET /api/v1/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	item, err := h.listings.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, item)
}

// Create handles POST /api/v1/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.Listing
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.listings.Create(r.Context(), &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, created)
}

// Update handles PUT /api/v1/listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	var in model.Listing
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.listings.Update(r.Context(), id, &in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, updated)
}

// Delete handles DELETE /api/v1/listings/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(w, r)
	if !ok {
		return
	}

	if err := h.listings.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// Validate handles POST /api/v1/listings/validate
func (h *ListingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var in model.Listing
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	errs := h.listings.Validate(&in)
	response.OK(w, ValidateResponse{Valid: len(errs) == 0, Errors: errs})
}
