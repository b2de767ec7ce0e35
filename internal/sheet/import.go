package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrMissingColumn = errors.New("sheet: missing column")

// ImportRow is one product line of an import workbook.
type ImportRow struct {
	Line     int
	Name     string
	Location string
	Unit     string
}

var importColumns = map[string][]string{
	"name":     {"название", "name", "product", "product name"},
	"location": {"расположение", "location"},
	"unit":     {"ед. изм.", "unit", "measurement"},
}

// ReadProducts reads the first sheet of an xlsx workbook. The header row
// may use either the Russian or the English column names; blank rows and
// rows without a name are skipped.
func ReadProducts(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("cannot read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty workbook: %w", ErrMissingColumn)
	}

	index, err := columnIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var result []ImportRow
	for i, row := range rows[1:] {
		item := ImportRow{
			Line:     i + 2,
			Name:     cell(row, index["name"]),
			Location: cell(row, index["location"]),
			Unit:     cell(row, index["unit"]),
		}
		if item.Name == "" {
			continue
		}
		result = append(result, item)
	}
	return result, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(importColumns))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for key, names := range importColumns {
			for _, n := range names {
				if h == n {
					if _, seen := index[key]; !seen {
						index[key] = i
					}
				}
			}
		}
	}
	for key := range importColumns {
		if _, ok := index[key]; !ok {
			return nil, fmt.Errorf("%s: %w", key, ErrMissingColumn)
		}
	}
	return index, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
