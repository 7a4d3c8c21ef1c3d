package reports

import (
	"fmt"
	"strings"
	"time"
)

// CacheKey returns the store key for a dataset day: {id}_{YYYYMMDD}.csv.
// Spreadsheet datasets are cached after conversion, so the key always uses
// the canonical extension.
func CacheKey(ds Dataset, day time.Time) string {
	return fmt.Sprintf("%s_%s.%s", ds.ID, day.Format(KeyLayout), CanonicalExt)
}

// ResourceURL returns {baseURL}/{YYYYMMDD}_{id}.{sourceExt}.
func ResourceURL(baseURL string, ds Dataset, day time.Time) string {
	return fmt.Sprintf("%s/%s_%s.%s", strings.TrimRight(baseURL, "/"), day.Format(KeyLayout), ds.ID, ds.SourceExt)
}
