// package metrics holds the prometheus collectors for the antns
// servers. Collectors are registered on the default registry and
// exposed on the proxy's status listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DNSQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antns_dns_queries_total",
		Help: "DNS queries handled, by query type and response code.",
	}, []string{"qtype", "rcode"})

	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antns_proxy_requests_total",
		Help: "HTTP proxy requests, by response status.",
	}, []string{"status"})

	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antns_resolutions_total",
		Help: "Domain resolutions, by outcome.",
	}, []string{"outcome"})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "antns_resolution_duration_seconds",
		Help:    "Wall-clock duration of full history resolutions.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	EntriesInspected = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "antns_register_entries_inspected",
		Help:    "Register entries walked per resolution.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "antns_cache_events_total",
		Help: "Resolution cache events: hit, miss, negative_hit, evict.",
	}, []string{"event"})
)
