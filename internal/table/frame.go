package table

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TimeColumn is the leading index column of every frame.
const TimeColumn = "Datetime"

var (
	// ErrNoFrames is returned when Concat receives nothing to join.
	ErrNoFrames = errors.New("table: no frames to concatenate")
	// ErrSchemaMismatch is returned when concatenated frames disagree on columns.
	ErrSchemaMismatch = errors.New("table: schema mismatch")
	// ErrUnknownColumn is returned when a column name is not in the frame.
	ErrUnknownColumn = errors.New("table: unknown column")
	// ErrMalformed is returned when delimited input cannot be parsed.
	ErrMalformed = errors.New("table: malformed input")
)

// Record is one row: its timestamp, label cells and numeric cells.
// Missing numeric cells are NaN.
type Record struct {
	Time   time.Time
	Labels []string
	Values []float64
}

// Frame is a table indexed by Datetime plus zero or more label columns,
// carrying one or more numeric data columns.
type Frame struct {
	Index   []string
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Records)
}

// LabelColumns returns the index columns after Datetime.
func (f *Frame) LabelColumns() []string {
	if f == nil || len(f.Index) == 0 {
		return nil
	}
	return f.Index[1:]
}

// SetTime stamps every record with t.
func (f *Frame) SetTime(t time.Time) {
	for i := range f.Records {
		f.Records[i].Time = t
	}
}

// Filter keeps the records whose label column equals value.
func (f *Frame) Filter(column, value string) (*Frame, error) {
	pos, err := f.labelPos(column)
	if err != nil {
		return nil, err
	}
	out := f.shell()
	for _, rec := range f.Records {
		if rec.Labels[pos] == value {
			out.Records = append(out.Records, rec)
		}
	}
	return out, nil
}

// Drop removes a label or data column.
func (f *Frame) Drop(column string) (*Frame, error) {
	if pos, err := f.labelPos(column); err == nil {
		out := f.shell()
		out.Index = removeAt(out.Index, pos+1)
		out.Records = make([]Record, 0, len(f.Records))
		for _, rec := range f.Records {
			rec.Labels = removeAt(rec.Labels, pos)
			out.Records = append(out.Records, rec)
		}
		return out, nil
	}
	for pos, name := range f.Columns {
		if name != column {
			continue
		}
		out := f.shell()
		out.Columns = removeAt(out.Columns, pos)
		out.Records = make([]Record, 0, len(f.Records))
		for _, rec := range f.Records {
			rec.Values = removeFloatAt(rec.Values, pos)
			out.Records = append(out.Records, rec)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
}

// Stack unpivots the data columns into one record per (record, column)
// pair. Column position p is read as hour p and folded into Datetime. The
// single resulting data column is named valueColumn.
func (f *Frame) Stack(dropMissing bool, valueColumn string) *Frame {
	out := &Frame{
		Index:   append([]string(nil), f.Index...),
		Columns: []string{valueColumn},
		Records: make([]Record, 0, len(f.Records)*len(f.Columns)),
	}
	for _, rec := range f.Records {
		for hour, value := range rec.Values {
			if dropMissing && math.IsNaN(value) {
				continue
			}
			out.Records = append(out.Records, Record{
				Time:   rec.Time.Add(time.Duration(hour) * time.Hour),
				Labels: rec.Labels,
				Values: []float64{value},
			})
		}
	}
	return out
}

// Concat joins frames in order. All frames must share index and columns.
func Concat(frames ...*Frame) (*Frame, error) {
	var first *Frame
	total := 0
	for _, f := range frames {
		if f == nil {
			continue
		}
		if first == nil {
			first = f
		} else if !sameNames(first.Index, f.Index) || !sameNames(first.Columns, f.Columns) {
			return nil, ErrSchemaMismatch
		}
		total += len(f.Records)
	}
	if first == nil {
		return nil, ErrNoFrames
	}
	out := first.shell()
	out.Records = make([]Record, 0, total)
	for _, f := range frames {
		if f == nil {
			continue
		}
		out.Records = append(out.Records, f.Records...)
	}
	return out, nil
}

func (f *Frame) labelPos(column string) (int, error) {
	for i, name := range f.LabelColumns() {
		if name == column {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
}

func (f *Frame) shell() *Frame {
	return &Frame{
		Index:   append([]string(nil), f.Index...),
		Columns: append([]string(nil), f.Columns...),
	}
}

func removeAt(values []string, pos int) []string {
	out := make([]string, 0, len(values)-1)
	out = append(out, values[:pos]...)
	return append(out, values[pos+1:]...)
}

func removeFloatAt(values []float64, pos int) []float64 {
	out := make([]float64, 0, len(values)-1)
	out = append(out, values[:pos]...)
	return append(out, values[pos+1:]...)
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
