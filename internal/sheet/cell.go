// Package sheet converts between single-sheet tabular grids and listings.
//
// A grid is a slice of rows, each row a slice of cells. A cell holds a
// string, float64, bool or nil (empty). Rows may be ragged; a missing trailing
// cell is treated the same as a nil one.
package sheet

import (
	"math"
	"strconv"
	"strings"
)

// Row is one line of a grid.
type Row = []any

// cellAt returns row[i], or nil when the row is too short.
func cellAt(row Row, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// cellText renders a cell as text. nil becomes "".
func cellText(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case bool:
		if c {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// isBlank reports whether a cell is absent, nil or whitespace-only text.
func isBlank(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(c) == ""
	}
	return false
}

// cellNumber coerces a cell to a number. Anything non-numeric becomes 0,
// including NaN and infinities, which no price can hold.
func cellNumber(v any) float64 {
	var f float64
	switch c := v.(type) {
	case float64:
		f = c
	case int:
		f = float64(c)
	case int64:
		f = float64(c)
	case bool:
		if c {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// copyRow returns a shallow copy of a row; cells are immutable scalars.
func copyRow(row Row) Row {
	out := make(Row, len(row))
	copy(out, row)
	return out
}

func copyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = copyRow(r)
	}
	return out
}
