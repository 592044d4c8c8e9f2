package ftx

import (
	"context"
	"testing"
	"time"

	"github.com/spooky-finn/cryptobridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	partialBTC = `{"channel":"orderbook","market":"BTC/USD","type":"partial","data":{
		"action":"partial","time":1644591432.1,"checksum":702854991,
		"bids":[[100.0,2.0],[99.5,1.0]],"asks":[[100.5,3.0]]}}`
	updateBTC = `{"channel":"orderbook","market":"BTC/USD","type":"update","data":{
		"action":"update","time":1644591432.2,"checksum":166771630,
		"bids":[[100.0,0.0]],"asks":[[100.6,1.0]]}}`
)

func TestFTXStreamAPI_OrderBookStream(t *testing.T) {
	client, conn := newTestClient(t, time.Hour)
	api := NewFTXStreamAPI(client, zap.NewNop())
	symbol := domain.MustMarketSymbol("BTC/USD")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := api.OrderBookStream(ctx, symbol)
	require.NoError(t, err)

	conn.incoming <- []byte(partialBTC)
	conn.incoming <- []byte(updateBTC)

	var updates []*domain.OrderBookUpdate
	for len(updates) < 2 {
		select {
		case update := <-sub.Stream:
			updates = append(updates, update)
		case <-time.After(time.Second):
			t.Fatal("updates were not delivered")
		}
	}

	assert.Equal(t, domain.UpdateKind_Snapshot, updates[0].Kind)
	assert.Equal(t, domain.UpdateKind_Diff, updates[1].Kind)

	sub.Unsubscribe()
	_, ok := <-sub.Stream
	assert.False(t, ok)
}

func TestFTXStreamAPI_MaintainerStaysSynced(t *testing.T) {
	client, conn := newTestClient(t, time.Hour)
	api := NewFTXStreamAPI(client, zap.NewNop())
	symbol := domain.MustMarketSymbol("BTC/USD")

	m := domain.NewOrderBookMaintainer(symbol, api, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(conn.sentOps("subscribe")) == 1
	}, time.Second, 5*time.Millisecond)

	conn.incoming <- []byte(partialBTC)
	conn.incoming <- []byte(updateBTC)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, m.WaitSynced(waitCtx))

	require.Eventually(t, func() bool {
		return domain.BookChecksum(m.OrderBook()) == 166771630
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.SyncState_Synced, m.State())
	assert.Zero(t, m.Resubscribes.Load())
}

func TestFTXStreamAPI_MalformedMessageResetsStream(t *testing.T) {
	client, conn := newTestClient(t, time.Hour)
	api := NewFTXStreamAPI(client, zap.NewNop())
	symbol := domain.MustMarketSymbol("BTC/USD")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := api.OrderBookStream(ctx, symbol)
	require.NoError(t, err)

	conn.incoming <- []byte(`{"channel":"orderbook","market":"BTC/USD","type":"update","data":{"bids":[[100.0,-1.0]],"asks":[]}}`)

	require.Eventually(t, func() bool {
		return len(conn.sentOps("unsubscribe")) == 1 && len(conn.sentOps("subscribe")) == 2
	}, time.Second, 5*time.Millisecond)

	select {
	case update := <-sub.Stream:
		assert.Equal(t, domain.UpdateKind_Reset, update.Kind)
		assert.True(t, symbol.Equal(update.Market))
	case <-time.After(time.Second):
		t.Fatal("reset was not delivered")
	}
}

func TestFTXStreamAPI_MalformedMessageUnsyncsMaintainer(t *testing.T) {
	client, conn := newTestClient(t, time.Hour)
	api := NewFTXStreamAPI(client, zap.NewNop())
	symbol := domain.MustMarketSymbol("BTC/USD")

	m := domain.NewOrderBookMaintainer(symbol, api, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(conn.sentOps("subscribe")) == 1
	}, time.Second, 5*time.Millisecond)

	conn.incoming <- []byte(partialBTC)
	require.Eventually(t, func() bool {
		return m.State() == domain.SyncState_Synced
	}, time.Second, 5*time.Millisecond)

	conn.incoming <- []byte(`{"channel":"orderbook","market":"BTC/USD","type":"update","data":{"bids":[[100.0,-1.0]],"asks":[]}}`)

	require.Eventually(t, func() bool {
		return m.State() == domain.SyncState_Unsynced
	}, time.Second, 5*time.Millisecond)
	assert.False(t, m.OrderBook().HasBothSides())
	assert.Zero(t, m.Resubscribes.Load())
	assert.Len(t, conn.sentOps("unsubscribe"), 1)

	conn.incoming <- []byte(partialBTC)
	require.Eventually(t, func() bool {
		return m.State() == domain.SyncState_Synced
	}, time.Second, 5*time.Millisecond)
}
