package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Money movements
	SettlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Total committed money movements",
		},
		[]string{"kind"}, // booking|balance|refund|penalty|reschedule_fee|payout|topup|tip|reward|withdrawal
	)
	SettlementFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_failures_total",
			Help: "Total money movements rolled back",
		},
		[]string{"kind"},
	)

	// Realtime
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Connected websocket clients",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics
var Handler = promhttp.Handler

// Init registers the collectors with the default registry, once
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, RequestLatency, SettlementsTotal, SettlementFailures, WSClients)
	})
}
