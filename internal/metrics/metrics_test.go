package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/blockfest-backend/internal/registry"
)

var _ registry.Observer = (*Metrics)(nil)

func TestObserveReload(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReload(true, 12)
	assert.Equal(t, 12.0, testutil.ToFloat64(m.RegistryEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryReloads.WithLabelValues("ok")))

	m.ObserveReload(false, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RegistryEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryReloads.WithLabelValues("error")))
}

func TestObserveLookupAndCheckVIP(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLookup(registry.OutcomeHit)
	m.ObserveLookup(registry.OutcomeHit)
	m.ObserveLookup(registry.OutcomeUnavailable)
	m.ObserveCheckVIP(http.StatusOK)
	m.ObserveCheckVIP(http.StatusServiceUnavailable)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistryLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryLookups.WithLabelValues("unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckVIPRequests.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckVIPRequests.WithLabelValues("503")))
}

func TestObserveLedgerCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveLedgerCall("all_tickets", time.Now().Add(-200*time.Millisecond))

	count, err := testutil.GatherAndCount(reg, "blockfest_ledger_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewRegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestRegistryFeedsMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	r := registry.New(memSource("Name,RollNumber,WalletAddress\nAda,001,0xAAA\nGrace,002,0xBBB\n"),
		registry.WithObserver(m))

	require.NoError(t, r.Load())
	_, err := r.Lookup("ada", "001", "0xaaa")
	require.NoError(t, err)
	_, err = r.Lookup("ada", "999", "0xaaa")
	require.ErrorIs(t, err, registry.ErrNotFound)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistryEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistryLookups.WithLabelValues("miss")))
}

type memSource string

func (s memSource) ReadAll() ([]byte, error) { return []byte(s), nil }
