// Package sheet writes inventory and supplier order spreadsheets and reads
// product import workbooks.
package sheet

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

var (
	InventoryHeader = []string{"Название", "Расположение", "Ед. изм.", "Количество"}
	OrderHeader     = []string{"Product Name", "Measurement", "Quantity"}
)

// InventoryRow is one counted product.
type InventoryRow struct {
	Product  string
	Location string
	Unit     string
	Quantity float64
}

// OrderRow is one product requested from a supplier.
type OrderRow struct {
	Product  string
	Unit     string
	Quantity float64
}

// InventoryFileName returns Inventory_{establishment}_{dd.mm.yy}_{userID}.xlsx.
func InventoryFileName(establishment string, date time.Time, userID uint) string {
	return fmt.Sprintf("Inventory_%s_%s_%d.xlsx", safePart(establishment), date.Format("02.01.06"), userID)
}

// OrderFileName returns Order_{supplier}_{establishment}_{dd.mm}.xlsx.
func OrderFileName(supplier, establishment string, date time.Time) string {
	return fmt.Sprintf("Order_%s_%s_%s.xlsx", safePart(supplier), safePart(establishment), date.Format("02.01"))
}

// WriteInventory renders the rows as an xlsx workbook.
func WriteInventory(w io.Writer, rows []InventoryRow) error {
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{r.Product, r.Location, r.Unit, r.Quantity})
	}
	return write(w, InventoryHeader, values, []float64{30, 20, 10, 12})
}

// WriteOrder renders the rows as an xlsx workbook.
func WriteOrder(w io.Writer, rows []OrderRow) error {
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, []interface{}{r.Product, r.Unit, r.Quantity})
	}
	return write(w, OrderHeader, values, []float64{30, 14, 12})
}

func write(w io.Writer, header []string, rows [][]interface{}, widths []float64) error {
	f := excelize.NewFile()
	defer f.Close()

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("cannot write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("cannot create header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("cannot style header: %w", err)
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("cannot set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("cannot write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("cannot write workbook: %w", err)
	}
	return nil
}

// safePart keeps a file name component free of path separators.
func safePart(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer("/", "_", `\`, "_", "..", "_", " ", "_")
	return replacer.Replace(s)
}
