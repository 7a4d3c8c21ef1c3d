package interfaces

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"market-reports/internal/table"
)

func sampleFrame() *table.Frame {
	day := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	return &table.Frame{
		Index:   []string{table.TimeColumn, "Node"},
		Columns: []string{"Value"},
		Records: []table.Record{
			{Time: day, Labels: []string{"AECI"}, Values: []float64{20.5}},
			{Time: day.Add(time.Hour), Labels: []string{"AECI"}, Values: []float64{math.NaN()}},
			{Time: day.Add(2 * time.Hour), Labels: []string{"AECI"}, Values: []float64{30.5}},
		},
	}
}

func sampleSummary() Summary {
	return Summary{Dataset: "rt_lmp_final", Variant: "LMP", Start: "2021-01-01", Stop: "2021-01-01", Stacked: true}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, "json": FormatJSON, " xlsx": FormatXLSX, "pdf": FormatPDF} {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Fatalf("expected %s for %q, got %s err=%v", want, name, got, err)
		}
	}
	if _, err := ParseFormat("parquet"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestBuildSeriesCSV(t *testing.T) {
	data, err := BuildSeriesCSV(sampleFrame())
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	want := "Datetime,Node,Value\n2021-01-01 00:00:00,AECI,20.5\n2021-01-01 01:00:00,AECI,\n2021-01-01 02:00:00,AECI,30.5\n"
	if string(data) != want {
		t.Fatalf("unexpected csv:\n%s", data)
	}
}

func TestBuildSeriesJSON(t *testing.T) {
	data, err := BuildSeriesJSON(sampleSummary(), sampleFrame())
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var doc seriesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Rows) != 3 || doc.Dataset != "rt_lmp_final" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Rows[1].Values[0] != nil {
		t.Fatalf("expected null for missing value")
	}
	if doc.Rows[0].Datetime != "2021-01-01T00:00:00Z" || *doc.Rows[0].Values[0] != 20.5 {
		t.Fatalf("unexpected first row %+v", doc.Rows[0])
	}
}

func TestBuildSeriesXLSX(t *testing.T) {
	data, err := BuildSeriesXLSX(sampleSummary(), sampleFrame())
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("series")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header and 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "Datetime,Node,Value" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][2] != "20.5" {
		t.Fatalf("expected 20.5, got %v", rows[1])
	}
	dataset, err := f.GetCellValue("summary", "B3")
	if err != nil || dataset != "rt_lmp_final" {
		t.Fatalf("expected dataset in summary, got %q err=%v", dataset, err)
	}
}

func TestBuildSeriesPDF(t *testing.T) {
	data, err := BuildSeriesPDF(sampleSummary(), sampleFrame())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected pdf header")
	}
}

func TestStats(t *testing.T) {
	stats := Stats(sampleFrame())
	if len(stats) != 1 {
		t.Fatalf("expected 1 column, got %d", len(stats))
	}
	s := stats[0]
	if s.Count != 2 || s.Missing != 1 || s.Min != 20.5 || s.Max != 30.5 || s.Mean != 25.5 {
		t.Fatalf("unexpected stats %+v", s)
	}
}
