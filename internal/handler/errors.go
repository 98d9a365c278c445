package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"marketplace-bulk-api/internal/catalog"
	"marketplace-bulk-api/internal/logging"
	"marketplace-bulk-api/internal/repository"
	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/internal/sheet"
	"marketplace-bulk-api/pkg/apierror"
	"marketplace-bulk-api/pkg/response"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// mapError translates a domain error into an API error.
func mapError(err error) *apierror.Error {
	var (
		apiErr    *apierror.Error
		invalid   *service.ValidationFailedError
		blocked   *service.ExportBlockedError
		malformed *sheet.MalformedTemplateError
		missing   *catalog.PreconditionError
		remote    *catalog.APIError
		tooLarge  *http.MaxBytesError
		inline    *service.InlineSyncTooLargeError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &invalid):
		return apierror.ValidationError("Listing has invalid fields", apierror.FieldErrors(invalid.Errors)...)
	case errors.Is(err, repository.ErrListingNotFound):
		return apierror.NotFound("Listing not found")
	case errors.As(err, &tooLarge):
		return apierror.PayloadTooLarge("Uploaded file is too large")
	case errors.As(err, &malformed):
		return apierror.Unprocessable("MALFORMED_TEMPLATE", malformed.Error())
	case errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, service.ErrUnreadableFile),
		errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrInvalidImportMode):
		return apierror.BadRequest(err.Error())
	case errors.As(err, &blocked):
		return apierror.Unprocessable("EXPORT_BLOCKED", blocked.Error())
	case errors.Is(err, service.ErrNothingToExport):
		return apierror.Unprocessable("NOTHING_TO_EXPORT", err.Error())
	case errors.Is(err, service.ErrAuthNotConfigured):
		return apierror.ServiceUnavailable(err.Error())
	case errors.Is(err, service.ErrStateMismatch),
		errors.Is(err, service.ErrMissingToken):
		return apierror.BadRequest(err.Error())
	case errors.Is(err, service.ErrTokenExpired):
		return apierror.Unauthorized(err.Error())
	case errors.Is(err, catalog.ErrNotAuthenticated):
		return apierror.Unauthorized("Not logged in to the marketplace. Please log in.")
	case errors.Is(err, catalog.ErrNoCatalog),
		errors.Is(err, catalog.ErrNothingToSync):
		return apierror.BadRequest(err.Error())
	case errors.As(err, &missing):
		return apierror.Unprocessable("SYNC_PRECONDITION", missing.Error())
	case errors.As(err, &inline):
		return apierror.Unprocessable("SYNC_TOO_LARGE_TO_WAIT", inline.Error())
	case errors.Is(err, service.ErrSyncInProgress):
		return apierror.Conflict(err.Error())
	case errors.As(err, &remote):
		switch remote.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apierror.Unauthorized(remote.Error())
		case http.StatusTooManyRequests:
			return apierror.TooManyRequests(remote.Error())
		}
		return apierror.BadGateway(remote.Error())
	}
	return apierror.InternalError("")
}

// writeError sends err as an API error and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := mapError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	response.Error(w, apiErr)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.BadRequest("request body is empty")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apierror.PayloadTooLarge("request body is too large")
		}
		return apierror.BadRequest("invalid request body")
	}
	return nil
}
