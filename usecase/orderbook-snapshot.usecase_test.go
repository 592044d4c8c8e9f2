package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spooky-finn/cryptobridge/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStreamAPI struct {
	mu      sync.Mutex
	streams map[string]chan *domain.OrderBookUpdate
}

func newFakeStreamAPI() *fakeStreamAPI {
	return &fakeStreamAPI{streams: make(map[string]chan *domain.OrderBookUpdate)}
}

func (f *fakeStreamAPI) stream(market string) chan *domain.OrderBookUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch, ok := f.streams[market]
	if !ok {
		ch = make(chan *domain.OrderBookUpdate, 8)
		f.streams[market] = ch
	}
	return ch
}

func (f *fakeStreamAPI) OrderBookStream(_ context.Context, symbol *domain.MarketSymbol) (*domain.Subscription[*domain.OrderBookUpdate], error) {
	return &domain.Subscription[*domain.OrderBookUpdate]{
		Stream:      f.stream(symbol.String()),
		Unsubscribe: func() {},
		Topic:       "orderbook:" + symbol.String(),
	}, nil
}

func (f *fakeStreamAPI) Resubscribe(*domain.MarketSymbol) error {
	return nil
}

func snapshotUpdate(symbol *domain.MarketSymbol) *domain.OrderBookUpdate {
	return domain.NewSnapshotUpdate(symbol,
		domain.MustParsePriceLevels([][]string{{"100.0", "2.0"}, {"99.5", "1.0"}}),
		domain.MustParsePriceLevels([][]string{{"100.5", "3.0"}, {"101", "4"}}),
		nil)
}

func newUseCase(t *testing.T) (*OrderBookSnapshotUseCase, *fakeStreamAPI, *domain.OrderBookStorage) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	stream := newFakeStreamAPI()
	storage := domain.NewOrderBookStorage()
	uc := NewOrderBookSnapshotUseCase(ctx, stream, storage, zap.NewNop())

	t.Cleanup(func() {
		cancel()
		uc.Wait()
	})
	return uc, stream, storage
}

func TestOrderBookSnapshotUseCase_StartsUnknownMarket(t *testing.T) {
	uc, stream, storage := newUseCase(t)
	symbol := domain.MustMarketSymbol("BTC/USD")

	_, err := uc.GetOrderBookSnapshot(symbol, 10)
	assert.ErrorIs(t, err, ErrOrderBookNotReady)
	assert.Equal(t, 1, storage.OrderBookCount())

	_, err = uc.GetOrderBookSnapshot(symbol, 10)
	assert.ErrorIs(t, err, ErrOrderBookNotReady)
	assert.Equal(t, 1, storage.OrderBookCount(), "second request does not start another book")

	stream.stream("BTC/USD") <- snapshotUpdate(symbol)

	var snapshot *domain.OrderBookSnapshot
	require.Eventually(t, func() bool {
		snapshot, err = uc.GetOrderBookSnapshot(symbol, 1)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, domain.OrderBookSource_LocalOrderBook, snapshot.Source)
	assert.Equal(t, [][]string{{"100.0", "2.0"}}, snapshot.Bids)
	assert.Equal(t, [][]string{{"100.5", "3.0"}}, snapshot.Asks)
	assert.Equal(t, []string{"BTC/USD"}, uc.Markets())
}

func TestOrderBookSnapshotUseCase_StartOrderBookIsIdempotent(t *testing.T) {
	uc, _, storage := newUseCase(t)
	symbol := domain.MustMarketSymbol("ETH-PERP")

	first := uc.StartOrderBook(symbol)
	second := uc.StartOrderBook(domain.MustMarketSymbol("eth-perp"))

	assert.Same(t, first, second)
	assert.Equal(t, 1, storage.OrderBookCount())
}

func TestOrderBookSnapshotUseCase_HidesDesyncedBook(t *testing.T) {
	uc, stream, _ := newUseCase(t)
	symbol := domain.MustMarketSymbol("BTC/USD")
	maintainer := uc.StartOrderBook(symbol)

	stream.stream("BTC/USD") <- snapshotUpdate(symbol)
	require.Eventually(t, func() bool {
		_, err := uc.GetOrderBookSnapshot(symbol, 5)
		return err == nil
	}, time.Second, 5*time.Millisecond)

	wrong := uint32(1)
	stream.stream("BTC/USD") <- domain.NewDiffUpdate(symbol,
		domain.MustParsePriceLevels([][]string{{"99", "1"}}), nil, &wrong)

	require.Eventually(t, func() bool {
		return maintainer.State() != domain.SyncState_Synced
	}, time.Second, 5*time.Millisecond)

	_, err := uc.GetOrderBookSnapshot(symbol, 5)
	assert.ErrorIs(t, err, ErrOrderBookNotReady)
}

func TestOrderBookSnapshotUseCase_RemovesStoppedBook(t *testing.T) {
	uc, stream, storage := newUseCase(t)
	symbol := domain.MustMarketSymbol("SOL/USD")
	uc.StartOrderBook(symbol)

	close(stream.stream("SOL/USD"))

	require.Eventually(t, func() bool {
		return storage.OrderBookCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestOrderBookSnapshotUseCase_StoppedUnsyncedBookReleasesGoroutines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := newFakeStreamAPI()
	storage := domain.NewOrderBookStorage()
	uc := NewOrderBookSnapshotUseCase(ctx, stream, storage, zap.NewNop())
	symbol := domain.MustMarketSymbol("SOL/USD")
	uc.StartOrderBook(symbol)

	// the stream ends before any snapshot arrives
	close(stream.stream("SOL/USD"))

	waited := make(chan struct{})
	go func() {
		uc.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("book goroutines still running after the maintainer stopped")
	}

	assert.Zero(t, storage.OrderBookCount())
	assert.Empty(t, uc.Markets())
}
