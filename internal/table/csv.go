package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Parse reads delimited text. The first skip lines are discarded as free
// text, the next line is the header, and the first labels header columns are
// label columns; every remaining column is numeric.
func Parse(r io.Reader, skip, labels int) (*Frame, error) {
	br := bufio.NewReader(r)
	for i := 0; i < skip; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %d header lines expected, got %d", ErrMalformed, skip, i)
			}
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	header = trimTrailingEmpty(header)
	if len(header) < labels {
		return nil, fmt.Errorf("%w: header has %d columns, want at least %d", ErrMalformed, len(header), labels)
	}

	frame := &Frame{
		Index:   append([]string{TimeColumn}, trimAll(header[:labels])...),
		Columns: trimAll(header[labels:]),
	}
	width := len(frame.Columns)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := reader.FieldPos(0)
		rec := Record{
			Labels: make([]string, labels),
			Values: make([]float64, width),
		}
		for i := 0; i < labels; i++ {
			if i < len(row) {
				rec.Labels[i] = strings.TrimSpace(row[i])
			}
		}
		for i := 0; i < width; i++ {
			cell := ""
			if labels+i < len(row) {
				cell = row[labels+i]
			}
			value, err := parseCell(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %q: %v", ErrMalformed, line+skip, frame.Columns[i], err)
			}
			rec.Values[i] = value
		}
		frame.Records = append(frame.Records, rec)
	}
	return frame, nil
}

// WriteCSV writes the frame with a header row of index and data columns.
func (f *Frame) WriteCSV(w io.Writer, timeLayout string) error {
	writer := csv.NewWriter(w)
	header := append(append([]string(nil), f.Index...), f.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}
	row := make([]string, 0, len(header))
	for _, rec := range f.Records {
		row = row[:0]
		row = append(row, rec.Time.Format(timeLayout))
		row = append(row, rec.Labels...)
		for _, v := range rec.Values {
			row = append(row, FormatValue(v))
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FormatValue renders a cell; NaN renders empty.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func trimTrailingEmpty(values []string) []string {
	end := len(values)
	for end > 0 && strings.TrimSpace(values[end-1]) == "" {
		end--
	}
	return values[:end]
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
