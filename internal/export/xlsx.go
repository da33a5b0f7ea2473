package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	defaultColumnWidth = 18
	headerFill         = "1F4E78"
	headerFont         = "FFFFFF"
)

// XLSXOptions tunes the workbook layout
type XLSXOptions struct {
	SheetName      string
	CurrencySymbol string
}

// WriteXLSX writes a workbook with a single sheet: a bold, filled header row,
// fixed column widths and currency formatting on currency columns.
func WriteXLSX(w io.Writer, t Table, opts XLSXOptions) error {
	if len(t.Rows) == 0 {
		return ErrNoData
	}
	if opts.SheetName == "" {
		opts.SheetName = "Sheet1"
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: headerFont},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	currencyFormat := fmt.Sprintf(`"%s"#,##0.00`, opts.CurrencySymbol)
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFormat})
	if err != nil {
		return fmt.Errorf("failed to create currency style: %w", err)
	}

	for i, c := range t.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}

		width := c.Width
		if width <= 0 {
			width = defaultColumnWidth
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetCellValue(sheet, col+"1", c.Header); err != nil {
			return err
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(t.Columns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range t.Rows {
		for c := range t.Columns {
			if c >= len(row) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(row[c])); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if t.Columns[c].Currency {
				if err := f.SetCellStyle(sheet, cell, cell, currencyStyle); err != nil {
					return err
				}
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue converts values excelize cannot store natively
func cellValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
