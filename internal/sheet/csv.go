package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// ReadCSV loads comma-separated text as a grid. All cells are text; empty
// fields become nil. Blank lines are dropped by the CSV reader.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var grid []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", len(grid)+1, err)
		}
		if len(grid) == 0 && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
		}

		row := make(Row, len(record))
		for i, field := range record {
			if field != "" {
				row[i] = field
			}
		}
		grid = append(grid, row)
	}

	return grid, nil
}

// WriteCSV renders an encoded grid as CSV. Width and merge hints have no CSV
// form and are ignored. Rows are padded to the widest row so blank rows
// survive as a line of separators.
func WriteCSV(enc *Encoded) ([]byte, error) {
	width := 0
	for _, row := range enc.Grid {
		width = max(width, len(row))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range enc.Grid {
		record := make([]string, width)
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
