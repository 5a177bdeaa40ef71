package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	AggregationsTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "aggregations_total", Help: "Trade aggregation passes started"})
	AggregationLatencyMs = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "aggregation_latency_ms", Help: "Aggregation pass latency", Buckets: prometheus.LinearBuckets(5, 25, 20)})
	StaleAggregations    = prometheus.NewCounter(prometheus.CounterOpts{Name: "stale_aggregations_discarded_total", Help: "Aggregation results discarded because the selection changed mid-flight"})
	AccountFetchErrors   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "account_fetch_errors_total", Help: "Per-account ledger fetch failures by collection"}, []string{"collection"})
	PriceBatchesTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "price_batches_total", Help: "Price update batches applied"})
	PriceBatchesEmpty    = prometheus.NewCounter(prometheus.CounterOpts{Name: "price_batches_empty_total", Help: "Empty price batches suppressed"})
	FeedReconnects       = prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Price feed reconnect attempts"})
	MutationsTotal       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mutations_total", Help: "Mutation outcomes by operation"}, []string{"op", "outcome"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		AggregationsTotal, AggregationLatencyMs, StaleAggregations, AccountFetchErrors,
		PriceBatchesTotal, PriceBatchesEmpty, FeedReconnects, MutationsTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
