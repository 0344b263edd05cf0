// Package export renders classified products as spreadsheet reports.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheet = "Products"

// Row is one product line in a report. Empty strings render as blank cells;
// a nil DaysLeft renders blank.
type Row struct {
	Product     string
	MfgDate     string
	ExpDate     string
	Status      string
	DaysLeft    *int
	ReminderDue bool
}

var headers = []string{
	"Product",
	"Mfg Date",
	"Exp Date",
	"Status",
	"Days Left",
	"Reminder",
}

// WriteXLSX returns an XLSX workbook (as bytes) with one row per product.
func WriteXLSX(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than adding a second one
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("writing header %s: %w", h, err)
		}
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) error {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			return f.SetCellValue(sheet, cell, v)
		}

		values := []any{r.Product, r.MfgDate, r.ExpDate, r.Status, "", ""}
		if r.DaysLeft != nil {
			values[4] = *r.DaysLeft
		}
		if r.ReminderDue {
			values[5] = "yes"
		}
		for col, v := range values {
			if err := write(col+1, v); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // product
	_ = f.SetColWidth(sheet, "B", "C", 14) // dates
	_ = f.SetColWidth(sheet, "D", "D", 14) // status
	_ = f.SetColWidth(sheet, "E", "F", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
