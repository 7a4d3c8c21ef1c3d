package reports

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDataset is returned when a dataset id has no descriptor.
	ErrUnknownDataset = errors.New("reports: unknown dataset")
	// ErrUnsupportedConverter is returned when a spreadsheet dataset has no converter.
	ErrUnsupportedConverter = errors.New("reports: unsupported format")
	// ErrRetrieval is returned when the remote report could not be retrieved.
	ErrRetrieval = errors.New("reports: retrieval failed")
	// ErrMalformedReport is returned when report content does not match the canonical layout.
	ErrMalformedReport = errors.New("reports: malformed report")
	// ErrInvalidDay is returned when a day does not parse as YYYY-MM-DD.
	ErrInvalidDay = errors.New("reports: invalid day")
	// ErrEmptyDatasetID is returned when a dataset id is blank.
	ErrEmptyDatasetID = errors.New("reports: empty dataset id")
	// ErrCacheMiss is returned by stores when a key has no entry.
	ErrCacheMiss = errors.New("reports: cache miss")
	// ErrInvalidCacheKey is returned by stores for keys they cannot address.
	ErrInvalidCacheKey = errors.New("reports: invalid cache key")
)

// DatasetError ties a dataset id to one of the dataset sentinels.
type DatasetError struct {
	Dataset string
	Err     error
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Dataset)
}

func (e *DatasetError) Unwrap() error { return e.Err }

// UnknownDataset builds an ErrUnknownDataset for id.
func UnknownDataset(id string) error {
	return &DatasetError{Dataset: id, Err: ErrUnknownDataset}
}

// UnsupportedConverter builds an ErrUnsupportedConverter for id.
func UnsupportedConverter(id string) error {
	return &DatasetError{Dataset: id, Err: ErrUnsupportedConverter}
}
