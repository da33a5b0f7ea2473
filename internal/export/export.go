// Package export renders tabular record sets as CSV or XLSX files.
package export

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned when there are no rows to export. No file is produced.
var ErrNoData = errors.New("no data available to export")

// Column describes one exported field
type Column struct {
	Header   string
	Width    float64 // XLSX column width in characters
	Currency bool    // XLSX applies the currency number format
}

// Table is a dataset ready to be written
type Table struct {
	Dataset string
	Columns []Column
	Rows    [][]any
}

// Filter is the subset of the list query that names an export file
type Filter struct {
	StartDate string
	EndDate   string
	Search    string
}

const isoDate = "2006-01-02"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// CSVFilename builds <dataset>_export_<start|all>_<end|all>[_<search>]_<date>.csv
func CSVFilename(dataset string, f Filter, now time.Time) string {
	parts := []string{dataset, "export", orAll(f.StartDate), orAll(f.EndDate)}
	if s := sanitize(f.Search); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, now.Format(isoDate))
	return strings.Join(parts, "_") + ".csv"
}

// XLSXFilename builds <dataset>_<date>.xlsx
func XLSXFilename(dataset string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", dataset, now.Format(isoDate))
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func sanitize(s string) string {
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(s), "-"), "-")
}

// cellString formats a value for text output
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
