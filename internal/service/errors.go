package service

import (
	"errors"
	"fmt"
)

// Listing service errors.
var (
	ErrEmptyFile         = errors.New("uploaded file is empty")
	ErrUnreadableFile    = errors.New("uploaded file could not be read")
	ErrUnsupportedFormat = errors.New("unsupported file format, use .xlsx or .csv")
	ErrInvalidImportMode = errors.New("import mode must be replace or append")
	ErrNothingToExport   = errors.New("there are no listings to export")
)

// Auth service errors.
var (
	ErrAuthNotConfigured = errors.New("marketplace login is not configured, set FACEBOOK_APP_ID")
	ErrStateMismatch     = errors.New("login state does not match, please try again")
	ErrMissingToken      = errors.New("callback did not include an access token")
	ErrTokenExpired      = errors.New("access token has already expired")
)

// ErrSyncInProgress is returned when a sync is requested while one runs.
var ErrSyncInProgress = errors.New("a catalog sync is already running")

// InlineSyncTooLargeError is returned when a sync that has to wait between
// batches is requested inline.
type InlineSyncTooLargeError struct {
	Batches int
}

func (e *InlineSyncTooLargeError) Error() string {
	return fmt.Sprintf("sync needs %d batches and cannot run inline, start it in the background and poll the last sync", e.Batches)
}

// ValidationFailedError carries per-field messages for a rejected listing.
type ValidationFailedError struct {
	Errors map[string]string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("listing has %d invalid field(s)", len(e.Errors))
}

// ExportBlockedError is returned when some listings would not pass upload.
type ExportBlockedError struct {
	InvalidCount int
}

func (e *ExportBlockedError) Error() string {
	return fmt.Sprintf("Cannot export! Please fix %d invalid listing(s) before exporting.", e.InvalidCount)
}
