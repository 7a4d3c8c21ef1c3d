package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"market-reports/internal/observability/metrics"
	reports "market-reports/internal/reports/domain"
	series "market-reports/internal/series/domain"
	"market-reports/internal/table"
)

// ReportFetcher returns canonical report text for a dataset day.
type ReportFetcher interface {
	Fetch(ctx context.Context, datasetID string, day time.Time) (string, error)
}

// Option configures the assembler.
type Option func(*Assembler)

// WithProgress writes one progress line per processed day to w.
func WithProgress(w io.Writer) Option {
	return func(a *Assembler) {
		a.progress = w
	}
}

// WithLogger sets the assembler logger.
func WithLogger(logger *log.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Assembler builds multi-day series from daily canonical reports.
type Assembler struct {
	catalog  reports.Catalog
	fetcher  ReportFetcher
	progress io.Writer
	logger   *log.Logger
}

// NewAssembler constructs an assembler.
func NewAssembler(catalog reports.Catalog, fetcher ReportFetcher, opts ...Option) (*Assembler, error) {
	if len(catalog) == 0 {
		return nil, errors.New("series assembler: empty catalog")
	}
	if fetcher == nil {
		return nil, errors.New("series assembler: nil fetcher")
	}
	a := &Assembler{
		catalog: catalog,
		fetcher: fetcher,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assemble returns the series selected by req. Selection values are
// validated before any report is fetched. Days are processed in order and
// days left with no rows are skipped; a range with no rows at all returns
// ErrEmptyResult.
func (a *Assembler) Assemble(ctx context.Context, req series.Request) (*table.Frame, error) {
	req = req.Normalize()
	ds, err := a.catalog.Lookup(req.Dataset)
	if err != nil {
		return nil, err
	}
	variant, err := series.ForDataset(ds)
	if err != nil {
		return nil, err
	}
	start, stop, err := req.Validate(variant)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	frames := make([]*table.Frame, 0)
	for _, day := range reports.Days(start, stop) {
		if err := ctx.Err(); err != nil {
			metrics.ObserveAssemble(variant.Name, metrics.ResultError, time.Since(began), 0)
			return nil, err
		}
		frame, err := a.assembleDay(ctx, variant, ds, day, req)
		if err != nil {
			metrics.ObserveAssemble(variant.Name, metrics.ResultError, time.Since(began), 0)
			return nil, err
		}
		if frame.Len() > 0 {
			frames = append(frames, frame)
		}
	}

	result, err := table.Concat(frames...)
	if err != nil {
		if errors.Is(err, table.ErrNoFrames) {
			metrics.ObserveAssemble(variant.Name, metrics.ResultEmpty, time.Since(began), 0)
			return nil, fmt.Errorf("%w: %s %s..%s", series.ErrEmptyResult, ds.ID, req.Start, req.Stop)
		}
		metrics.ObserveAssemble(variant.Name, metrics.ResultError, time.Since(began), 0)
		return nil, err
	}
	metrics.ObserveAssemble(variant.Name, metrics.ResultSuccess, time.Since(began), result.Len())
	return result, nil
}

func (a *Assembler) assembleDay(ctx context.Context, variant series.Variant, ds reports.Dataset, day time.Time, req series.Request) (*table.Frame, error) {
	if a.progress != nil {
		fmt.Fprintf(a.progress, "Processing %s %s... ", ds.ID, day.Format(reports.DayLayout))
	}
	content, err := a.fetcher.Fetch(ctx, ds.ID, day)
	if err != nil {
		if a.progress != nil {
			fmt.Fprintln(a.progress, "failed")
		}
		a.logger.Printf("series fetch %s %s error: %v", ds.ID, day.Format(reports.DayLayout), err)
		return nil, err
	}
	frame, err := parseReport(content, variant)
	if err != nil {
		a.logger.Printf("series parse %s %s error: %v", ds.ID, day.Format(reports.DayLayout), err)
		return nil, fmt.Errorf("%s %s: %w", ds.ID, day.Format(reports.DayLayout), err)
	}
	frame.SetTime(day)
	if a.progress != nil {
		fmt.Fprintf(a.progress, "%d records found\n", frame.Len())
	}

	selections := []struct {
		column string
		value  string
	}{
		{variant.EntityColumn, req.Entity},
		{series.CategoryColumn, req.Category},
		{series.ValueColumn, req.Value},
	}
	for _, sel := range selections {
		if sel.value == series.Wildcard {
			continue
		}
		if frame, err = frame.Filter(sel.column, sel.value); err != nil {
			return nil, err
		}
		if frame, err = frame.Drop(sel.column); err != nil {
			return nil, err
		}
	}

	if req.Stack {
		frame = frame.Stack(req.DropMissing, series.ValueColumn)
	}
	return frame, nil
}

func parseReport(content string, variant series.Variant) (*table.Frame, error) {
	frame, err := table.Parse(strings.NewReader(content), series.HeaderLines, series.LabelColumns)
	if err != nil {
		if errors.Is(err, table.ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", reports.ErrMalformedReport, err)
		}
		return nil, err
	}
	if len(frame.Columns) != series.HoursPerDay {
		return nil, fmt.Errorf("%w: %d hour columns, want %d", reports.ErrMalformedReport, len(frame.Columns), series.HoursPerDay)
	}
	// Header spellings vary between publications; the label columns are
	// positional.
	frame.Index = []string{table.TimeColumn, variant.EntityColumn, series.CategoryColumn, series.ValueColumn}
	return frame, nil
}
