package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/repository"
	"marketplace-bulk-api/internal/sheet"
	"marketplace-bulk-api/pkg/uid"
)

// Format is a spreadsheet file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a query value to a Format. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType returns the MIME type of files in this format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// formatOf picks the reader for an uploaded file by extension, falling back
// to the zip signature for nameless uploads.
func formatOf(filename string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case "":
		if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
			return FormatXLSX, nil
		}
		return FormatCSV, nil
	}
	return "", ErrUnsupportedFormat
}

// ImportMode controls what happens to existing listings on import.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportAppend  ImportMode = "append"
)

// ParseImportMode maps a query value to an ImportMode. Empty means replace.
func ParseImportMode(s string) (ImportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "replace":
		return ImportReplace, nil
	case "append":
		return ImportAppend, nil
	}
	return "", ErrInvalidImportMode
}

// ImportResult summarises an import.
type ImportResult struct {
	Mode         ImportMode `json:"mode"`
	Imported     int        `json:"imported"`
	SkippedRows  int        `json:"skipped_rows"`
	Total        int        `json:"total"`
	InvalidCount int        `json:"invalid_count"`
	HeaderRow    []string   `json:"header_row"`
}

// File is a generated spreadsheet ready for download.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListingStats counts stored listings.
type ListingStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// ListingService handles listing edits and spreadsheet import/export.
type ListingService struct {
	repo   repository.ListingRepository
	logger *slog.Logger
}

// NewListingService creates a new listing service.
func NewListingService(repo repository.ListingRepository) *ListingService {
	return &ListingService{
		repo:   repo,
		logger: slog.With("component", "listing_service"),
	}
}

// List returns every listing with its validation result.
func (s *ListingService) List(ctx context.Context) ([]model.ListingStatus, error) {
	listings, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.ListingStatus, 0, len(listings))
	for _, l := range listings {
		errs := model.Validate(l)
		out = append(out, model.ListingStatus{Listing: l, Valid: len(errs) == 0, Errors: errs})
	}
	return out, nil
}

// Get returns one listing with its validation result.
func (s *ListingService) Get(ctx context.Context, id string) (*model.ListingStatus, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := model.Validate(l)
	return &model.ListingStatus{Listing: l, Valid: len(errs) == 0, Errors: errs}, nil
}

// Create stores a new listing under a fresh id.
func (s *ListingService) Create(ctx context.Context, input *model.Listing) (*model.Listing, error) {
	l, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	l.ID = uid.New()

	if err := s.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	s.logger.Info("listing created", "id", l.ID)
	return l, nil
}

// Update replaces the listing with the given id.
func (s *ListingService) Update(ctx context.Context, id string, input *model.Listing) (*model.Listing, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	l, err := s.prepare(input)
	if err != nil {
		return nil, err
	}
	l.ID = id

	if err := s.repo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	s.logger.Info("listing updated", "id", id)
	return l, nil
}

// Delete removes a listing.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("listing deleted", "id", id)
	return nil
}

// Validate checks a draft without saving it.
func (s *ListingService) Validate(input *model.Listing) map[string]string {
	if input == nil {
		input = &model.Listing{}
	}
	l := input.Clone()
	l.StripKnownFields()
	return model.Validate(l)
}

func (s *ListingService) prepare(input *model.Listing) (*model.Listing, error) {
	if input == nil {
		input = &model.Listing{}
	}
	l := input.Clone()
	if dropped := l.StripKnownFields(); dropped > 0 {
		s.logger.Debug("dropped other fields that shadow known columns", "count", dropped)
	}

	if errs := model.Validate(l); len(errs) > 0 {
		return nil, &ValidationFailedError{Errors: errs}
	}
	return l, nil
}

// Import reads a spreadsheet and stores its listings and layout.
func (s *ListingService) Import(ctx context.Context, filename string, data []byte, mode ImportMode) (*ImportResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if mode == "" {
		mode = ImportReplace
	}
	if mode != ImportReplace && mode != ImportAppend {
		return nil, ErrInvalidImportMode
	}

	format, err := formatOf(filename, data)
	if err != nil {
		return nil, err
	}

	var grid []sheet.Row
	switch format {
	case FormatXLSX:
		grid, err = sheet.ReadXLSX(bytes.NewReader(data))
	default:
		grid, err = sheet.ReadCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	decoded, err := sheet.Decode(grid)
	if err != nil {
		return nil, err
	}

	listings := decoded.Listings
	if mode == ImportAppend {
		existing, err := s.repo.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
		listings = append(existing, listings...)
	}

	if err := s.repo.ReplaceAll(ctx, listings); err != nil {
		return nil, fmt.Errorf("failed to save imported listings: %w", err)
	}
	if err := s.repo.SaveHeaderRow(ctx, decoded.HeaderRow); err != nil {
		return nil, fmt.Errorf("failed to save header row: %w", err)
	}
	if err := s.repo.SavePreHeaderRows(ctx, decoded.PreHeaderRows); err != nil {
		return nil, fmt.Errorf("failed to save pre-header rows: %w", err)
	}

	result := &ImportResult{
		Mode:        mode,
		Imported:    len(decoded.Listings),
		SkippedRows: decoded.SkippedRows,
		Total:       len(listings),
		HeaderRow:   decoded.HeaderRow,
	}
	for _, l := range listings {
		if !model.IsValid(l) {
			result.InvalidCount++
		}
	}

	s.logger.Info("listings imported",
		"file", filename,
		"format", format,
		"mode", mode,
		"imported", result.Imported,
		"skipped_rows", result.SkippedRows,
		"total", result.Total,
	)
	return result, nil
}

// Export writes every listing in the remembered layout. It refuses when
// there is nothing to export or any listing is invalid.
func (s *ListingService) Export(ctx context.Context, format Format) (*File, error) {
	listings, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, ErrNothingToExport
	}

	invalid := 0
	for _, l := range listings {
		if !model.IsValid(l) {
			invalid++
		}
	}
	if invalid > 0 {
		return nil, &ExportBlockedError{InvalidCount: invalid}
	}

	file, err := s.render(ctx, listings, format, sheet.ExportFilename)
	if err != nil {
		return nil, err
	}
	s.logger.Info("listings exported", "format", format, "count", len(listings), "bytes", len(file.Data))
	return file, nil
}

// Template writes the remembered layout with no data rows.
func (s *ListingService) Template(ctx context.Context, format Format) (*File, error) {
	return s.render(ctx, nil, format, sheet.TemplateFilename)
}

func (s *ListingService) render(ctx context.Context, listings []*model.Listing, format Format, basename string) (*File, error) {
	layout, err := s.Layout(ctx)
	if err != nil {
		return nil, err
	}

	enc := sheet.Encode(listings, layout.HeaderRow, layout.PreHeaderRows)

	var data []byte
	switch format {
	case FormatCSV:
		data, err = sheet.WriteCSV(enc)
	case FormatXLSX, "":
		format = FormatXLSX
		data, err = sheet.WriteXLSX(enc, sheet.SheetName)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return &File{
		Filename:    basename + "." + string(format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// Layout returns the remembered header and pre-header rows.
func (s *ListingService) Layout(ctx context.Context) (*model.Layout, error) {
	header, err := s.repo.LoadHeaderRow(ctx)
	if err != nil {
		return nil, err
	}
	pre, err := s.repo.LoadPreHeaderRows(ctx)
	if err != nil {
		return nil, err
	}
	return &model.Layout{HeaderRow: header, PreHeaderRows: pre}, nil
}

// ResetLayout restores the default layout.
func (s *ListingService) ResetLayout(ctx context.Context) error {
	if err := s.repo.ResetLayout(ctx); err != nil {
		return err
	}
	s.logger.Info("layout reset to defaults")
	return nil
}

// Stats counts stored listings by validity.
func (s *ListingService) Stats(ctx context.Context) (*ListingStats, error) {
	listings, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	st := &ListingStats{Total: len(listings)}
	for _, l := range listings {
		if model.IsValid(l) {
			st.Valid++
		}
	}
	st.Invalid = st.Total - st.Valid
	return st, nil
}
