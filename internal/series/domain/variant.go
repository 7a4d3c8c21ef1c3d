package series

import (
	"sort"
	"strings"
)

const (
	// Wildcard keeps a label column as an index dimension instead of filtering it.
	Wildcard = "*"

	// CategoryColumn and ValueColumn are the second and third label columns
	// of every canonical table.
	CategoryColumn = "Type"
	ValueColumn    = "Value"

	// LabelColumns is the number of label columns before the hour columns.
	LabelColumns = 3
	// HeaderLines is the number of free-form lines before the header row.
	HeaderLines = 4
	// HoursPerDay is the number of hour columns per row.
	HoursPerDay = 24
)

// Variant is the selection vocabulary for a family of datasets.
type Variant struct {
	Name         string
	EntityColumn string
	Categories   []string
	Values       []string
}

var (
	// LMP covers the locational marginal price reports.
	LMP = Variant{
		Name:         "LMP",
		EntityColumn: "Node",
		Categories:   []string{"Interface", "Loadzone", "Hub", "Gennode"},
		Values:       []string{"LMP", "MCC", "MLC"},
	}
	// Load covers the forecast and actual load reports.
	Load = Variant{
		Name:         "Load",
		EntityColumn: "Zone",
		Categories:   []string{"Forecast", "Actual"},
		Values:       []string{"LOAD"},
	}
)

var variants = map[string]Variant{
	"lmp":  LMP,
	"load": Load,
}

// VariantByName resolves a variant case-insensitively.
func VariantByName(name string) (Variant, error) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, &SelectionError{Field: "variant", Value: name, Allowed: VariantNames(), Err: ErrUnknownVariant}
	}
	return v, nil
}

// VariantNames lists the known variant keys.
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateCategory checks a category selection against the vocabulary.
func (v Variant) ValidateCategory(category string) error {
	if category == Wildcard || contains(v.Categories, category) {
		return nil
	}
	return &SelectionError{Field: "category", Value: category, Allowed: v.Categories, Err: ErrInvalidCategory}
}

// ValidateValue checks a value selection against the vocabulary.
func (v Variant) ValidateValue(value string) error {
	if value == Wildcard || contains(v.Values, value) {
		return nil
	}
	return &SelectionError{Field: "value", Value: value, Allowed: v.Values, Err: ErrInvalidValue}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
