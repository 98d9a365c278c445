package handler

import (
	"errors"
	"io"
	"net/http"

	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/pkg/apierror"
	"marketplace-bulk-api/pkg/response"
)

// DefaultMaxUploadBytes is used when no upload limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// SpreadsheetHandler handles import, export and layout requests.
type SpreadsheetHandler struct {
	listings       *service.ListingService
	maxUploadBytes int64
}

// NewSpreadsheetHandler creates a new spreadsheet handler.
func NewSpreadsheetHandler(listings *service.ListingService, maxUploadBytes int64) *SpreadsheetHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &SpreadsheetHandler{listings: listings, maxUploadBytes: maxUploadBytes}
}

// Import handles POST /api/v1/import?mode=replace|append with a multipart
// "file" field.
func (h *SpreadsheetHandler) Import(w http.ResponseWriter, r *http.Request) {
	mode, err := service.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.ContentLength > h.maxUploadBytes {
		writeError(w, r, apierror.PayloadTooLarge("Uploaded file is too large"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, apierror.BadRequest("expected a multipart form with a file field"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apierror.BadRequest("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.listings.Import(r.Context(), header.Filename, data, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Export handles GET /api/v1/export?format=xlsx|csv
func (h *SpreadsheetHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := service.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := h.listings.Export(r.Context(), format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Attachment(w, file.Filename, file.ContentType, file.Data)
}

// Template handles GET /api/v1/template?format=xlsx|csv
func (h *SpreadsheetHandler) Template(w http.ResponseWriter, r *http.Request) {
	format, err := service.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	file, err := h.listings.Template(r.Context(), format)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Attachment(w, file.Filename, file.ContentType, file.Data)
}

// GetLayout handles GET /api/v1/layout
func (h *SpreadsheetHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	layout, err := h.listings.Layout(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, layout)
}

// ResetLayout handles DELETE /api/v1/layout
func (h *SpreadsheetHandler) ResetLayout(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.ResetLayout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}
