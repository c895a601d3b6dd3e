package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the VIP registry and the API.
// It satisfies registry.Observer.
type Metrics struct {
	RegistryReloads  *prometheus.CounterVec
	RegistryEntries  prometheus.Gauge
	RegistryLookups  *prometheus.CounterVec
	CheckVIPRequests *prometheus.CounterVec
	LedgerCalls      *prometheus.HistogramVec
}

// New registers every metric with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistryReloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blockfest_vip_registry_reloads_total",
			Help: "VIP list reloads by result (ok, error)",
		}, []string{"result"}),
		RegistryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blockfest_vip_registry_entries",
			Help: "Entries in the current VIP list snapshot (0 while unavailable)",
		}),
		RegistryLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blockfest_vip_registry_lookups_total",
			Help: "VIP lookups by outcome (hit, miss, unavailable)",
		}, []string{"outcome"}),
		CheckVIPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blockfest_check_vip_requests_total",
			Help: "POST /api/check-vip responses by HTTP status",
		}, []string{"status"}),
		LedgerCalls: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blockfest_ledger_call_duration_seconds",
			Help:    "Duration of ledger reads issued by the API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"call"}),
	}
}

// ObserveReload records a registry load. A failed load zeroes the gauge
// because the cache is unavailable until the next good load.
func (m *Metrics) ObserveReload(ok bool, entries int) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.RegistryReloads.WithLabelValues(result).Inc()
	m.RegistryEntries.Set(float64(entries))
}

func (m *Metrics) ObserveLookup(outcome string) {
	m.RegistryLookups.WithLabelValues(outcome).Inc()
}

// ObserveCheckVIP counts one check-vip response.
func (m *Metrics) ObserveCheckVIP(status int) {
	m.CheckVIPRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveLedgerCall records the duration of a ledger read.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLedgerCall(call string, start time.Time) {
	m.LedgerCalls.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
