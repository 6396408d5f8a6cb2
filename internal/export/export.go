// Package export renders pricing results as downloadable files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/GTDGit/pricing_api/internal/pricing"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"

	sheetName = "Pricing"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown formats.
var ErrUnsupportedFormat = errors.New("UNSUPPORTED_FORMAT")

// ParseFormat accepts csv (the default), excel or xlsx.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", ErrUnsupportedFormat
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName builds the attachment name for an export taken at t.
func (f Format) FileName(t time.Time) string {
	ext := "csv"
	if f == FormatExcel {
		ext = "xlsx"
	}
	return fmt.Sprintf("pricing_sku_%s.%s", t.Format("20060102_150405"), ext)
}

var header = []string{
	"productId", "sku", "name", "brand", "category", "categoryL2", "categoryL3",
	"ownPrice", "minCompetitorPrice", "maxCompetitorPrice",
	"competitorCount", "cheaperCount", "position", "deltaVsCheapestPct", "status",
	"cheapestStore", "mostExpensiveStore", "url",
}

// Write renders results in format f to w, header row first, in the given order.
func Write(w io.Writer, f Format, results []pricing.ClassificationResult) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, results)
	case FormatExcel:
		return writeExcel(w, results)
	}
	return ErrUnsupportedFormat
}

func writeCSV(w io.Writer, results []pricing.ClassificationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(csvRecord(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(r pricing.ClassificationResult) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.SKU,
		r.Name,
		r.Brand,
		r.Category,
		r.CategoryL2,
		r.CategoryL3,
		r.OwnPrice.String(),
		nullString(r.MinCompetitorPrice),
		nullString(r.MaxCompetitorPrice),
		strconv.Itoa(r.CompetitorCount),
		strconv.Itoa(r.CheaperCount),
		intString(r.Position),
		nullString(r.DeltaPct),
		string(r.Status),
		strOrEmpty(r.CheapestStore),
		strOrEmpty(r.MostExpensiveStore),
		r.URL,
	}
}

func writeExcel(w io.Writer, results []pricing.ClassificationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(3, 3, 48); err != nil {
		return err
	}

	titles := make([]interface{}, len(header))
	for i, h := range header {
		titles[i] = h
	}
	if err := sw.SetRow("A1", titles, excelize.RowOpts{StyleID: bold}); err != nil {
		return err
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, excelRecord(r)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	return f.Write(w)
}

func excelRecord(r pricing.ClassificationResult) []interface{} {
	return []interface{}{
		r.ID,
		r.SKU,
		r.Name,
		r.Brand,
		r.Category,
		r.CategoryL2,
		r.CategoryL3,
		r.OwnPrice.InexactFloat64(),
		nullFloat(r.MinCompetitorPrice),
		nullFloat(r.MaxCompetitorPrice),
		r.CompetitorCount,
		r.CheaperCount,
		intOrNil(r.Position),
		nullFloat(r.DeltaPct),
		string(r.Status),
		strOrEmpty(r.CheapestStore),
		strOrEmpty(r.MostExpensiveStore),
		r.URL,
	}
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func nullFloat(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func intString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func intOrNil(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
