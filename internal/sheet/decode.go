package sheet

import (
	"fmt"

	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/pkg/uid"
)

// MaxHeaderSearchRows bounds how far down the header row is looked for.
const MaxHeaderSearchRows = 20

// Defaults applied to empty known cells on import.
const (
	DefaultCondition     = model.ConditionNew
	DefaultCategory      = ""
	DefaultOfferShipping = "No"
)

// MalformedTemplateError is returned when no header row can be located.
type MalformedTemplateError struct {
	SearchedRows int
}

func (e *MalformedTemplateError) Error() string {
	return fmt.Sprintf("no title/price header found in first %d rows", e.SearchedRows)
}

// Decoded is the result of reading a grid.
type Decoded struct {
	Listings      []*model.Listing
	HeaderRow     []string
	PreHeaderRows []Row
	// SkippedRows counts data rows dropped for having neither title nor price.
	SkippedRows int
}

// columnMap records where each column of interest lives in a header row.
type columnMap struct {
	known map[string]int // canonical name -> first index
	other map[int]string // index -> original header text
}

func mapColumns(header []string) columnMap {
	cm := columnMap{
		known: make(map[string]int),
		other: make(map[int]string),
	}
	seen := make(map[string]bool)

	for i, name := range header {
		norm := model.NormalizeColumn(name)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true

		if model.KnownColumns[norm] {
			cm.known[norm] = i
		} else {
			cm.other[i] = name
		}
	}
	return cm
}

func (cm columnMap) index(column string) int {
	if i, ok := cm.known[column]; ok {
		return i
	}
	return -1
}

// FindHeaderRow returns the index of the first row, within the search window,
// containing both a title and a price column. It returns -1 if there is none.
func FindHeaderRow(grid []Row) int {
	limit := min(len(grid), MaxHeaderSearchRows)

	for i := 0; i < limit; i++ {
		hasTitle, hasPrice := false, false
		for _, c := range grid[i] {
			switch model.NormalizeColumn(cellText(c)) {
			case model.ColumnTitle:
				hasTitle = true
			case model.ColumnPrice:
				hasPrice = true
			}
		}
		if hasTitle && hasPrice {
			return i
		}
	}
	return -1
}

// Decode locates the header row in grid and turns every following non-blank
// row into a listing. Rows above the header are returned untouched so that
// Encode can reproduce them.
func Decode(grid []Row) (*Decoded, error) {
	headerIdx := FindHeaderRow(grid)
	if headerIdx < 0 {
		return nil, &MalformedTemplateError{SearchedRows: MaxHeaderSearchRows}
	}

	header := make([]string, len(grid[headerIdx]))
	for i, c := range grid[headerIdx] {
		header[i] = cellText(c)
	}

	out := &Decoded{
		HeaderRow:     header,
		PreHeaderRows: preHeaderRows(grid[:headerIdx]),
		Listings:      make([]*model.Listing, 0, len(grid)-headerIdx-1),
	}

	cols := mapColumns(header)
	titleIdx := cols.index(model.ColumnTitle)
	priceIdx := cols.index(model.ColumnPrice)

	for _, row := range grid[headerIdx+1:] {
		if isBlank(cellAt(row, titleIdx)) && isBlank(cellAt(row, priceIdx)) {
			out.SkippedRows++
			continue
		}
		out.Listings = append(out.Listings, decodeRow(row, cols))
	}

	return out, nil
}

// preHeaderRows copies the rows above the header without their trailing
// empty cells, which CSV padding adds and which carry no layout.
func preHeaderRows(rows []Row) []Row {
	out := copyRows(rows)
	for i, row := range out {
		n := len(row)
		for n > 0 && row[n-1] == nil {
			n--
		}
		out[i] = row[:n]
	}
	return out
}

func decodeRow(row Row, cols columnMap) *model.Listing {
	text := func(column, fallback string) string {
		s := cellText(cellAt(row, cols.index(column)))
		if s == "" {
			return fallback
		}
		return s
	}

	l := &model.Listing{
		ID:            uid.New(),
		Title:         text(model.ColumnTitle, ""),
		Price:         model.PriceOf(cellNumber(cellAt(row, cols.index(model.ColumnPrice)))),
		Condition:     text(model.ColumnCondition, DefaultCondition),
		Description:   text(model.ColumnDescription, ""),
		Category:      text(model.ColumnCategory, DefaultCategory),
		OfferShipping: text(model.ColumnOfferShipping, DefaultOfferShipping),
	}

	for i, name := range cols.other {
		v := cellAt(row, i)
		if v == nil {
			continue
		}
		if l.OtherFields == nil {
			l.OtherFields = make(map[string]any)
		}
		l.OtherFields[name] = v
	}

	return l
}
