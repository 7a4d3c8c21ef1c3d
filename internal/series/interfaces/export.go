package interfaces

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"market-reports/internal/table"
)

// TimeLayout renders Datetime cells in every export.
const TimeLayout = "2006-01-02 15:04:05"

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("series export: unknown format")

// ParseFormat maps a name to a Format. Blank means CSV.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Summary describes the series being exported.
type Summary struct {
	Dataset string
	Variant string
	Start   string
	Stop    string
	Stacked bool
}

// Build renders frame in the requested format.
func Build(format Format, summary Summary, frame *table.Frame) ([]byte, error) {
	switch format {
	case FormatCSV:
		return BuildSeriesCSV(frame)
	case FormatJSON:
		return BuildSeriesJSON(summary, frame)
	case FormatXLSX:
		return BuildSeriesXLSX(summary, frame)
	case FormatPDF:
		return BuildSeriesPDF(summary, frame)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// BuildSeriesCSV renders the frame as delimited text.
func BuildSeriesCSV(frame *table.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.WriteCSV(&buf, TimeLayout); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type seriesDocument struct {
	Dataset string      `json:"dataset"`
	Variant string      `json:"variant"`
	Start   string      `json:"start"`
	Stop    string      `json:"stop"`
	Stacked bool        `json:"stacked"`
	Index   []string    `json:"index"`
	Columns []string    `json:"columns"`
	Rows    []seriesRow `json:"rows"`
}

type seriesRow struct {
	Datetime string     `json:"datetime"`
	Labels   []string   `json:"labels,omitempty"`
	Values   []*float64 `json:"values"`
}

// BuildSeriesJSON renders the frame as a JSON document; missing cells are null.
func BuildSeriesJSON(summary Summary, frame *table.Frame) ([]byte, error) {
	doc := seriesDocument{
		Dataset: summary.Dataset,
		Variant: summary.Variant,
		Start:   summary.Start,
		Stop:    summary.Stop,
		Stacked: summary.Stacked,
		Index:   frame.Index,
		Columns: frame.Columns,
		Rows:    make([]seriesRow, 0, frame.Len()),
	}
	for _, rec := range frame.Records {
		row := seriesRow{
			Datetime: rec.Time.Format(time.RFC3339),
			Labels:   rec.Labels,
			Values:   make([]*float64, len(rec.Values)),
		}
		for i, v := range rec.Values {
			if math.IsNaN(v) {
				continue
			}
			value := v
			row.Values[i] = &value
		}
		doc.Rows = append(doc.Rows, row)
	}
	return json.Marshal(doc)
}

// BuildSeriesXLSX renders a summary sheet and a data sheet.
func BuildSeriesXLSX(summary Summary, frame *table.Frame) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	dataSheet := "series"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dataSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Market Report Series")
	_ = f.SetCellValue(summarySheet, "A3", "Dataset")
	_ = f.SetCellValue(summarySheet, "B3", summary.Dataset)
	_ = f.SetCellValue(summarySheet, "A4", "Variant")
	_ = f.SetCellValue(summarySheet, "B4", summary.Variant)
	_ = f.SetCellValue(summarySheet, "A5", "Start")
	_ = f.SetCellValue(summarySheet, "B5", summary.Start)
	_ = f.SetCellValue(summarySheet, "A6", "Stop")
	_ = f.SetCellValue(summarySheet, "B6", summary.Stop)
	_ = f.SetCellValue(summarySheet, "A7", "Stacked")
	_ = f.SetCellValue(summarySheet, "B7", summary.Stacked)
	_ = f.SetCellValue(summarySheet, "A8", "Rows")
	_ = f.SetCellValue(summarySheet, "B8", frame.Len())

	header := append(append([]string(nil), frame.Index...), frame.Columns...)
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(dataSheet, cell, name)
	}
	for i, rec := range frame.Records {
		row := i + 2
		cells := make([]interface{}, 0, len(header))
		cells = append(cells, rec.Time.Format(TimeLayout))
		for _, label := range rec.Labels {
			cells = append(cells, label)
		}
		for _, v := range rec.Values {
			if math.IsNaN(v) {
				cells = append(cells, nil)
				continue
			}
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(dataSheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ColumnStats summarises one data column.
type ColumnStats struct {
	Column  string
	Count   int
	Missing int
	Min     float64
	Max     float64
	Mean    float64
}

// Stats computes per-column statistics, ignoring missing cells.
func Stats(frame *table.Frame) []ColumnStats {
	stats := make([]ColumnStats, len(frame.Columns))
	sums := make([]float64, len(frame.Columns))
	for i, name := range frame.Columns {
		stats[i] = ColumnStats{Column: name, Min: math.Inf(1), Max: math.Inf(-1)}
	}
	for _, rec := range frame.Records {
		for i, v := range rec.Values {
			if math.IsNaN(v) {
				stats[i].Missing++
				continue
			}
			stats[i].Count++
			sums[i] += v
			stats[i].Min = math.Min(stats[i].Min, v)
			stats[i].Max = math.Max(stats[i].Max, v)
		}
	}
	for i := range stats {
		if stats[i].Count == 0 {
			stats[i].Min, stats[i].Max = math.NaN(), math.NaN()
			stats[i].Mean = math.NaN()
			continue
		}
		stats[i].Mean = sums[i] / float64(stats[i].Count)
	}
	return stats
}

// BuildSeriesPDF renders a one-page summary with per-column statistics.
func BuildSeriesPDF(summary Summary, frame *table.Frame) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Market Report Series")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Dataset: %s", summary.Dataset))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Variant: %s", summary.Variant))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Range: %s to %s", summary.Start, summary.Stop))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Index: %s", strings.Join(frame.Index, ", ")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Rows: %d", frame.Len()))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Column", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Count", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Missing", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Mean", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range Stats(frame) {
		pdf.CellFormat(30, 6, s.Column, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", s.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", s.Missing), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatStat(s.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatStat(s.Mean), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, formatStat(s.Max), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
