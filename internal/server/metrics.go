package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dreamware/kvcache/internal/store"
)

// Collectors for the node's operational counters. They register on the
// default registry; cmd/node decides whether to expose them over HTTP.
var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kvcache",
		Subsystem: "server",
		Name:      "commands_total",
		Help:      "Commands processed, by verb and outcome.",
	}, []string{"verb", "outcome"})

	forwardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kvcache",
		Subsystem: "server",
		Name:      "forwards_total",
		Help:      "Client commands relayed to a shard primary.",
	})

	replicationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kvcache",
		Subsystem: "server",
		Name:      "replication_failures_total",
		Help:      "Writes acknowledged to clients whose replica mirror failed.",
	})

	openConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "kvcache",
		Subsystem: "server",
		Name:      "open_connections",
		Help:      "Client connections currently open.",
	})
)

func outcomeLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// RegisterStoreMetrics exposes a store's occupancy as gauges sampled
// at scrape time. Call it once per process — the default registry
// rejects duplicate collectors, which is why this is not part of New:
// tests construct many servers, a node has exactly one store.
func RegisterStoreMetrics(st *store.Store) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "kvcache",
			Subsystem: "store",
			Name:      "keys",
			Help:      "Entries currently held, expired-but-unseen included.",
		}, func() float64 { return float64(st.Stats().Keys) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "kvcache",
			Subsystem: "store",
			Name:      "expired_keys",
			Help:      "Held entries past their deadline, awaiting collection.",
		}, func() float64 { return float64(st.Stats().Expired) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "kvcache",
			Subsystem: "store",
			Name:      "capacity_keys",
			Help:      "Configured capacity before LRU eviction.",
		}, func() float64 { return float64(st.Stats().MaxKeys) }),
	)
}
