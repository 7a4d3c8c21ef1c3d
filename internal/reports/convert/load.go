package convert

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	reports "market-reports/internal/reports/domain"
)

const (
	descriptiveRows = 4
	zoneHeaderRow   = 4
	firstHourRow    = 5
	hoursPerDay     = 24
	firstZoneColumn = 2
)

// ForecastActualLoad converts the daily forecast and actual load workbook.
// The first sheet holds four descriptive rows, a zone header row and 24 hour
// rows. Each zone occupies a column pair starting at column C: forecast in
// the first column, actual in the second.
func ForecastActualLoad(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: open workbook: %v", reports.ErrMalformedReport, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", reports.ErrMalformedReport)
	}
	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("%w: read sheet %q: %v", reports.ErrMalformedReport, sheets[0], err)
	}
	if len(grid) <= zoneHeaderRow {
		return "", fmt.Errorf("%w: expected zone header at row %d, sheet has %d rows", reports.ErrMalformedReport, zoneHeaderRow+1, len(grid))
	}

	var out strings.Builder
	for i := 0; i < descriptiveRows; i++ {
		out.WriteString(descriptiveLine(grid[i]))
		out.WriteByte('\n')
	}

	out.WriteString("Zone,Type,Value")
	for hour := 0; hour < hoursPerDay; hour++ {
		out.WriteByte(',')
		out.WriteString(strconv.Itoa(hour))
	}
	out.WriteByte('\n')

	header := grid[zoneHeaderRow]
	for col := firstZoneColumn; col < len(header); col += 2 {
		fields := strings.Fields(header[col])
		if len(fields) == 0 {
			break
		}
		zone := fields[0]
		writeLoadRow(&out, zone, "Forecast", grid, col)
		writeLoadRow(&out, zone, "Actual", grid, col+1)
	}
	return out.String(), nil
}

func writeLoadRow(out *strings.Builder, zone, category string, grid [][]string, col int) {
	out.WriteString(zone)
	out.WriteByte(',')
	out.WriteString(category)
	out.WriteString(",LOAD")
	for hour := 0; hour < hoursPerDay; hour++ {
		out.WriteByte(',')
		out.WriteString(roundedCell(grid, firstHourRow+hour, col))
	}
	out.WriteByte('\n')
}

func roundedCell(grid [][]string, row, col int) string {
	if row >= len(grid) || col >= len(grid[row]) {
		return ""
	}
	value, err := decimal.NewFromString(strings.TrimSpace(grid[row][col]))
	if err != nil {
		return ""
	}
	return value.Round(2).String()
}

// descriptiveLine keeps a header row on one line so the canonical parser can
// skip it by line count.
func descriptiveLine(cells []string) string {
	flat := make([]string, len(cells))
	for i, cell := range cells {
		flat[i] = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(cell)
	}
	return strings.Join(flat, ",")
}
