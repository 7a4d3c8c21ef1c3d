package reports

import (
	"sort"
	"strings"
)

// Kind is the source format family of a dataset.
type Kind string

const (
	KindDelimited   Kind = "delimited"
	KindSpreadsheet Kind = "spreadsheet"
)

// IsValid reports whether the kind is supported.
func (k Kind) IsValid() bool {
	switch k {
	case KindDelimited, KindSpreadsheet:
		return true
	default:
		return false
	}
}

// CanonicalExt is the extension of canonical content regardless of source format.
const CanonicalExt = "csv"

// Dataset describes one published report type.
type Dataset struct {
	ID        string `yaml:"id"`
	Kind      Kind   `yaml:"kind"`
	SourceExt string `yaml:"ext"`
	Variant   string `yaml:"variant"`
}

// Catalog maps dataset ids to descriptors.
type Catalog map[string]Dataset

// DefaultCatalog returns the built-in dataset descriptors.
func DefaultCatalog() Catalog {
	return Catalog{
		"da_exante_lmp":   {ID: "da_exante_lmp", Kind: KindDelimited, SourceExt: "csv", Variant: "lmp"},
		"da_expost_lmp":   {ID: "da_expost_lmp", Kind: KindDelimited, SourceExt: "csv", Variant: "lmp"},
		"rt_lmp_final":    {ID: "rt_lmp_final", Kind: KindDelimited, SourceExt: "csv", Variant: "lmp"},
		"rt_lmp_prelim":   {ID: "rt_lmp_prelim", Kind: KindDelimited, SourceExt: "csv", Variant: "lmp"},
		"5min_exante_lmp": {ID: "5min_exante_lmp", Kind: KindSpreadsheet, SourceExt: "xls", Variant: "lmp"},
		"df_al":           {ID: "df_al", Kind: KindSpreadsheet, SourceExt: "xlsx", Variant: "load"},
	}
}

// Lookup returns the descriptor for id.
func (c Catalog) Lookup(id string) (Dataset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Dataset{}, ErrEmptyDatasetID
	}
	ds, ok := c[id]
	if !ok {
		return Dataset{}, UnknownDataset(id)
	}
	return ds, nil
}

// Merge returns a copy of c with overrides applied. Override fields left
// empty keep the base value.
func (c Catalog) Merge(overrides []Dataset) Catalog {
	merged := make(Catalog, len(c)+len(overrides))
	for id, ds := range c {
		merged[id] = ds
	}
	for _, o := range overrides {
		if o.ID == "" {
			continue
		}
		base := merged[o.ID]
		base.ID = o.ID
		if o.Kind != "" {
			base.Kind = o.Kind
		}
		if o.SourceExt != "" {
			base.SourceExt = strings.TrimPrefix(o.SourceExt, ".")
		}
		if o.Variant != "" {
			base.Variant = o.Variant
		}
		merged[o.ID] = base
	}
	return merged
}

// IDs returns the dataset ids in sorted order.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
