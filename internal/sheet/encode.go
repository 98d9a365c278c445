package sheet

import (
	"marketplace-bulk-api/internal/model"
)

// Merge is a horizontal merged range on a single row, zero-based and
// inclusive.
type Merge struct {
	Row      int `json:"row"`
	FirstCol int `json:"first_col"`
	LastCol  int `json:"last_col"`
}

// Encoded is a grid ready to be written, with its layout hints.
type Encoded struct {
	Grid         []Row
	ColumnWidths []float64
	Merges       []Merge
}

// Encode lays listings out under headerRow, preceded by preHeaderRows.
// Neither the listings nor the layout slices are modified.
func Encode(listings []*model.Listing, headerRow []string, preHeaderRows []Row) *Encoded {
	grid := make([]Row, 0, len(preHeaderRows)+1+len(listings))
	grid = append(grid, copyRows(preHeaderRows)...)

	header := make(Row, len(headerRow))
	for i, h := range headerRow {
		header[i] = h
	}
	grid = append(grid, header)

	for _, l := range listings {
		row := make(Row, len(headerRow))
		for i, column := range headerRow {
			row[i] = resolveCell(l, column)
		}
		grid = append(grid, row)
	}

	enc := &Encoded{Grid: grid}

	if len(headerRow) == len(DefaultColumnWidths) {
		enc.ColumnWidths = append([]float64(nil), DefaultColumnWidths...)
	}

	if len(preHeaderRows) >= 2 && len(headerRow) > 1 {
		last := len(headerRow) - 1
		enc.Merges = []Merge{
			{Row: 0, FirstCol: 0, LastCol: last},
			{Row: 1, FirstCol: 0, LastCol: last},
		}
	}

	return enc
}

// resolveCell picks the value for one column: a named attribute first, then
// other_fields by exact and then case-insensitive key, else "".
func resolveCell(l *model.Listing, column string) any {
	if v, ok := l.KnownValue(column); ok {
		return v
	}
	if v, ok := l.OtherValue(column); ok {
		return v
	}
	return ""
}
