// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package vectorstore

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// storeMetrics holds the Prometheus metrics for similarity search. Search
// is the one vectorstore operation with meaningful latency variance (HNSW
// traversal cost scales with collection size), so it's the only histogram
// wired in here.
type storeMetrics struct {
	once sync.Once

	searchDuration prometheus.Histogram
	searchHits     prometheus.Histogram
}

func newStoreMetrics() *storeMetrics {
	m := &storeMetrics{}
	m.once.Do(func() {
		m.searchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ckg_vectorstore_search_duration_seconds",
			Help:    "Duración de similaritySearch en segundos",
			Buckets: prometheus.DefBuckets,
		})
		m.searchHits = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ckg_vectorstore_search_hits",
			Help:    "Número de resultados devueltos por similaritySearch",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		})
	})
	return m
}

func (m *storeMetrics) observeSearch(d time.Duration, hits int) {
	if m == nil {
		return
	}
	m.searchDuration.Observe(d.Seconds())
	m.searchHits.Observe(float64(hits))
}
