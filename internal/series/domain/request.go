package series

import (
	"strings"
	"time"

	reports "market-reports/internal/reports/domain"
)

// Request selects a multi-day series from one dataset.
type Request struct {
	Start       string
	Stop        string
	Dataset     string
	Stack       bool
	Category    string
	Value       string
	Entity      string
	DropMissing bool
}

// Normalize trims the day and dataset fields and maps a blank category or
// value to the wildcard. Entity is an unchecked exact match and is left as
// given.
func (r Request) Normalize() Request {
	r.Start = strings.TrimSpace(r.Start)
	r.Stop = strings.TrimSpace(r.Stop)
	r.Dataset = strings.TrimSpace(r.Dataset)
	r.Category = wildcardIfBlank(r.Category)
	r.Value = wildcardIfBlank(r.Value)
	return r
}

// Validate checks the selection against v and parses the day range.
func (r Request) Validate(v Variant) (start, stop time.Time, err error) {
	if err := v.ValidateCategory(r.Category); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if err := v.ValidateValue(r.Value); err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err = reports.ParseDay(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	stop, err = reports.ParseDay(r.Stop)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, stop, nil
}

// ForDataset resolves the variant of a dataset descriptor.
func ForDataset(ds reports.Dataset) (Variant, error) {
	v, err := VariantByName(ds.Variant)
	if err != nil {
		return Variant{}, &SelectionError{Field: "variant", Value: ds.ID, Allowed: VariantNames(), Err: ErrUnknownVariant}
	}
	return v, nil
}

func wildcardIfBlank(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return Wildcard
	}
	return value
}
