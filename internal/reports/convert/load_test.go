package convert

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	reports "market-reports/internal/reports/domain"
	"market-reports/internal/table"
)

func buildLoadWorkbook(t *testing.T, zones []string) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := "Sheet1"
	set := func(col, row int, value any) {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("set %s: %v", cell, err)
		}
	}

	set(1, 1, "Daily Forecast and Actual Load by Local Resource Zone")
	set(1, 2, "Market Date: 2021-01-01")
	set(1, 3, "Forecast is MTLF, Actual is\nsettled load")
	set(1, 4, "All values in MWh")
	set(1, 5, "Market Day")
	set(2, 5, "HourEnding")
	for i, zone := range zones {
		forecastCol := 3 + 2*i
		set(forecastCol, 5, zone+" MTLF (MWh)")
		set(forecastCol+1, 5, zone+" ActualLoad (MWh)")
		for hour := 0; hour < 24; hour++ {
			row := 6 + hour
			set(1, row, "2021-01-01")
			set(2, row, hour+1)
			set(forecastCol, row, 1000+float64(hour)+0.456)
			if hour != 23 {
				set(forecastCol+1, row, 900+float64(hour)+0.111)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestForecastActualLoadLayout(t *testing.T) {
	content := buildLoadWorkbook(t, []string{"LRZ1", "LRZ2_7"})

	text, err := ForecastActualLoad(content)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), text)
	}
	if lines[2] != "Forecast is MTLF, Actual is settled load" {
		t.Fatalf("expected flattened descriptive line, got %q", lines[2])
	}
	wantHeader := "Zone,Type,Value,0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23"
	if lines[4] != wantHeader {
		t.Fatalf("unexpected header %q", lines[4])
	}
	if !strings.HasPrefix(lines[5], "LRZ1,Forecast,LOAD,1000.46,1001.46,") {
		t.Fatalf("unexpected forecast row %q", lines[5])
	}
	if !strings.HasPrefix(lines[6], "LRZ1,Actual,LOAD,900.11,") || !strings.HasSuffix(lines[6], ",922.11,") {
		t.Fatalf("unexpected actual row %q", lines[6])
	}
	if !strings.HasPrefix(lines[7], "LRZ2_7,Forecast,LOAD,") {
		t.Fatalf("unexpected second zone row %q", lines[7])
	}
}

func TestForecastActualLoadParsesAsCanonicalTable(t *testing.T) {
	text, err := ForecastActualLoad(buildLoadWorkbook(t, []string{"LRZ1", "LRZ3_5", "LRZ8_9_10"}))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	frame, err := table.Parse(strings.NewReader(text), 4, 3)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if frame.Len() != 6 {
		t.Fatalf("expected 6 rows, got %d", frame.Len())
	}
	if len(frame.Columns) != 24 {
		t.Fatalf("expected 24 hour columns, got %d", len(frame.Columns))
	}
	actual := frame.Records[1]
	if actual.Labels[0] != "LRZ1" || actual.Labels[1] != "Actual" || actual.Labels[2] != "LOAD" {
		t.Fatalf("unexpected labels %v", actual.Labels)
	}
	if !math.IsNaN(actual.Values[23]) {
		t.Fatalf("expected missing hour 23, got %v", actual.Values[23])
	}
}

func TestForecastActualLoadRejectsGarbage(t *testing.T) {
	_, err := ForecastActualLoad([]byte("not a workbook"))
	if !errors.Is(err, reports.ErrMalformedReport) {
		t.Fatalf("expected ErrMalformedReport, got %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	registry := DefaultRegistry()
	if _, err := registry.Lookup("df_al"); err != nil {
		t.Fatalf("expected df_al converter, got %v", err)
	}
	_, err := registry.Lookup("5min_exante_lmp")
	if !errors.Is(err, reports.ErrUnsupportedConverter) {
		t.Fatalf("expected ErrUnsupportedConverter, got %v", err)
	}
	if !strings.Contains(err.Error(), "5min_exante_lmp") {
		t.Fatalf("expected error to name the dataset, got %q", err.Error())
	}

	missing := registry.Missing(reports.DefaultCatalog())
	if len(missing) != 1 || missing[0] != "5min_exante_lmp" {
		t.Fatalf("expected only 5min_exante_lmp missing, got %v", missing)
	}
}
