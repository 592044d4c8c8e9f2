package promclient

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spooky-finn/cryptobridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObservesMaintainerEvents(t *testing.T) {
	m := NewMetrics()
	symbol, err := domain.NewMarketSymbol("BTC", "USD")
	require.NoError(t, err)

	m.OnVerification(symbol, domain.VerificationOutcome{Result: domain.Verification_Match})
	m.OnVerification(symbol, domain.VerificationOutcome{Result: domain.Verification_Mismatch})
	m.OnOutOfOrderDiff(symbol)
	m.OnResubscribe(symbol)
	m.OnStateChange(symbol, domain.SyncState_Synced)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("BTC/USD", "match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("BTC/USD", "mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Desyncs.WithLabelValues("BTC/USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutOfOrderDiffs.WithLabelValues("BTC/USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resubscriptions.WithLabelValues("BTC/USD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncedOrderBook.WithLabelValues("BTC/USD")))

	m.OnStateChange(symbol, domain.SyncState_Desynced)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SyncedOrderBook.WithLabelValues("BTC/USD")))
}

type countStub int

func (c countStub) OrderBookCount() int { return int(c) }

func TestMetrics_TrackOpenOrderBooks(t *testing.T) {
	m := NewMetrics()
	m.TrackOpenOrderBooks(countStub(3))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenOrderBooks))

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "orderbook_open_books")
}
