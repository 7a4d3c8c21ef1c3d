package metrics

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EntryCounter reports how many reports a cache holds.
type EntryCounter interface {
	Count(ctx context.Context) (int, error)
}

// RegisterCacheEntries exposes the cache size as a gauge evaluated on scrape.
func RegisterCacheEntries(counter EntryCounter, logger *log.Logger) {
	if counter == nil {
		return
	}
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "cache_entries",
			Help: "Cached canonical reports",
		},
		func() float64 {
			return countEntries(counter, logger)
		},
	))
}

func countEntries(counter EntryCounter, logger *log.Logger) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	count, err := counter.Count(ctx)
	if err != nil {
		if logger != nil {
			logger.Printf("metrics cache count failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
