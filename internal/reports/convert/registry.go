package convert

import (
	"sync"

	reports "market-reports/internal/reports/domain"
)

// Converter turns a source workbook into canonical delimited text.
type Converter func(content []byte) (string, error)

// Registry maps spreadsheet dataset ids to converters.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]Converter)}
}

// DefaultRegistry returns a registry with every built-in converter.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("df_al", ForecastActualLoad)
	return r
}

// Register binds a converter to a dataset id, replacing any previous one.
func (r *Registry) Register(datasetID string, converter Converter) {
	if datasetID == "" || converter == nil {
		return
	}
	r.mu.Lock()
	r.converters[datasetID] = converter
	r.mu.Unlock()
}

// Lookup returns the converter for a dataset.
func (r *Registry) Lookup(datasetID string) (Converter, error) {
	r.mu.RLock()
	converter, ok := r.converters[datasetID]
	r.mu.RUnlock()
	if !ok {
		return nil, reports.UnsupportedConverter(datasetID)
	}
	return converter, nil
}

// Missing lists spreadsheet datasets in catalog that have no converter.
func (r *Registry) Missing(catalog reports.Catalog) []string {
	var missing []string
	for _, id := range catalog.IDs() {
		if catalog[id].Kind != reports.KindSpreadsheet {
			continue
		}
		if _, err := r.Lookup(id); err != nil {
			missing = append(missing, id)
		}
	}
	return missing
}
