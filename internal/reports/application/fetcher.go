package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"market-reports/internal/observability/metrics"
	"market-reports/internal/reports/convert"
	reports "market-reports/internal/reports/domain"
)

// Store persists canonical report content by cache key.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}

// Getter retrieves the bytes behind a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Converters resolves the converter for a spreadsheet dataset.
type Converters interface {
	Lookup(datasetID string) (convert.Converter, error)
}

// Option configures the fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for cache write failures.
func WithLogger(logger *log.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fetcher returns canonical report content for a dataset day, reading
// through the cache.
type Fetcher struct {
	catalog    reports.Catalog
	converters Converters
	getter     Getter
	store      Store
	baseURL    string
	logger     *log.Logger
}

// NewFetcher constructs a fetcher.
func NewFetcher(catalog reports.Catalog, converters Converters, getter Getter, store Store, baseURL string, opts ...Option) (*Fetcher, error) {
	if len(catalog) == 0 {
		return nil, errors.New("report fetcher: empty catalog")
	}
	if converters == nil {
		return nil, errors.New("report fetcher: nil converters")
	}
	if getter == nil {
		return nil, errors.New("report fetcher: nil getter")
	}
	if store == nil {
		return nil, errors.New("report fetcher: nil store")
	}
	if baseURL == "" {
		return nil, errors.New("report fetcher: empty base url")
	}
	f := &Fetcher{
		catalog:    catalog,
		converters: converters,
		getter:     getter,
		store:      store,
		baseURL:    baseURL,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch returns the canonical text for datasetID on day. A cached entry is
// returned verbatim; otherwise the report is retrieved, converted when the
// source is a spreadsheet, and cached. A failed cache write removes the
// partial entry and is logged, but the content is still returned.
func (f *Fetcher) Fetch(ctx context.Context, datasetID string, day time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ds, err := f.catalog.Lookup(datasetID)
	if err != nil {
		return "", err
	}
	key := reports.CacheKey(ds, day)

	start := time.Now()
	cached, err := f.store.Read(ctx, key)
	switch {
	case err == nil:
		metrics.ObserveFetch(metrics.SourceCache, metrics.ResultSuccess, time.Since(start))
		return string(cached), nil
	case !errors.Is(err, reports.ErrCacheMiss):
		metrics.ObserveFetch(metrics.SourceCache, metrics.ResultError, time.Since(start))
		return "", fmt.Errorf("read cache %s: %w", key, err)
	}

	var converter convert.Converter
	if ds.Kind == reports.KindSpreadsheet {
		converter, err = f.converters.Lookup(ds.ID)
		if err != nil {
			return "", err
		}
	}

	url := reports.ResourceURL(f.baseURL, ds, day)
	raw, err := f.getter.Get(ctx, url)
	if err != nil {
		metrics.ObserveFetch(metrics.SourceRemote, metrics.ResultError, time.Since(start))
		return "", fmt.Errorf("%w: %s: %w", reports.ErrRetrieval, url, err)
	}

	content := string(raw)
	if converter != nil {
		content, err = converter(raw)
		if err != nil {
			metrics.ObserveConvert(ds.ID, metrics.ResultError)
			metrics.ObserveFetch(metrics.SourceRemote, metrics.ResultError, time.Since(start))
			if errors.Is(err, reports.ErrMalformedReport) {
				return "", fmt.Errorf("convert %s: %w", url, err)
			}
			return "", fmt.Errorf("%w: convert %s: %w", reports.ErrMalformedReport, url, err)
		}
		metrics.ObserveConvert(ds.ID, metrics.ResultSuccess)
	}

	if err := f.store.Write(ctx, key, []byte(content)); err != nil {
		metrics.IncCacheWriteError()
		f.logger.Printf("report cache write error: key=%s err=%v", key, err)
		if rmErr := f.store.Remove(ctx, key); rmErr != nil {
			f.logger.Printf("report cache cleanup error: key=%s err=%v", key, rmErr)
		}
	}
	metrics.ObserveFetch(metrics.SourceRemote, metrics.ResultSuccess, time.Since(start))
	return content, nil
}

// Cached reports whether the dataset day is already in the cache.
func (f *Fetcher) Cached(ctx context.Context, datasetID string, day time.Time) (bool, error) {
	ds, err := f.catalog.Lookup(datasetID)
	if err != nil {
		return false, err
	}
	return f.store.Exists(ctx, reports.CacheKey(ds, day))
}

// Evict removes the cached entry for the dataset day.
func (f *Fetcher) Evict(ctx context.Context, datasetID string, day time.Time) error {
	ds, err := f.catalog.Lookup(datasetID)
	if err != nil {
		return err
	}
	return f.store.Remove(ctx, reports.CacheKey(ds, day))
}
