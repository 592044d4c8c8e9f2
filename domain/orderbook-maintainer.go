package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

var ErrStreamClosed = errors.New("order book stream closed")

// ProviderStreamAPI is the venue feed a maintainer consumes.
type ProviderStreamAPI interface {
	OrderBookStream(ctx context.Context, symbol *MarketSymbol) (*Subscription[*OrderBookUpdate], error)
	// Resubscribe asks the venue to restart the market's stream with a fresh snapshot.
	Resubscribe(symbol *MarketSymbol) error
}

// MaintainerObserver receives the maintainer's bookkeeping events.
// Calls come from the maintainer goroutine and must not block.
type MaintainerObserver interface {
	OnVerification(symbol *MarketSymbol, outcome VerificationOutcome)
	OnOutOfOrderDiff(symbol *MarketSymbol)
	OnStateChange(symbol *MarketSymbol, state SyncState)
	OnResubscribe(symbol *MarketSymbol)
}

// OrderbookMaintainer keeps one market's book in sync with the venue feed.
// Updates are queued as they arrive and applied strictly in order by a single reader.
type OrderbookMaintainer struct {
	symbol    *MarketSymbol
	streamAPI ProviderStreamAPI
	applier   *UpdateApplier
	observers []MaintainerObserver
	logger    *zap.Logger

	depthUpdateQueue deque.Deque[*OrderBookUpdate]
	mu               sync.Mutex
	wake             chan struct{}

	state          atomic.Value
	synced         chan struct{}
	syncedOnce     sync.Once
	OutOfOrderDiff atomic.Int64
	Resubscribes   atomic.Int64
}

func NewOrderBookMaintainer(
	symbol *MarketSymbol,
	stream ProviderStreamAPI,
	logger *zap.Logger,
	observers ...MaintainerObserver,
) *OrderbookMaintainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	book := NewOrderBook(symbol)

	m := &OrderbookMaintainer{
		symbol:    symbol,
		streamAPI: stream,
		applier:   NewUpdateApplier(book, NewChecksumCodec(nil), logger),
		observers: observers,
		logger:    logger.Named("orderbook-maintainer").With(zap.Stringer("market", symbol)),

		depthUpdateQueue: deque.Deque[*OrderBookUpdate]{},
		wake:             make(chan struct{}, 1),
		synced:           make(chan struct{}),
	}
	m.state.Store(SyncState_Unsynced)
	return m
}

func (m *OrderbookMaintainer) Symbol() *MarketSymbol {
	return m.symbol
}

func (m *OrderbookMaintainer) OrderBook() *OrderBook {
	return m.applier.Book()
}

// State is safe to call from any goroutine.
func (m *OrderbookMaintainer) State() SyncState {
	return m.state.Load().(SyncState)
}

// WaitSynced blocks until the first snapshot has been applied.
func (m *OrderbookMaintainer) WaitSynced(ctx context.Context) error {
	select {
	case <-m.synced:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run subscribes to the market and applies its updates until ctx is cancelled
// or the stream closes.
func (m *OrderbookMaintainer) Run(ctx context.Context) error {
	subscription, err := m.streamAPI.OrderBookStream(ctx, m.symbol)
	if err != nil {
		return fmt.Errorf("subscribe to %s order book stream: %w", m.symbol, err)
	}
	defer subscription.Unsubscribe()

	m.logger.Info("subscribed to order book stream", zap.String("topic", subscription.Topic))

	streamDone := make(chan struct{})
	go m.runStreamSubscriber(ctx, subscription.Stream, streamDone)

	return m.queueReader(ctx, streamDone)
}

func (m *OrderbookMaintainer) runStreamSubscriber(ctx context.Context, stream <-chan *OrderBookUpdate, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-stream:
			if !ok {
				return
			}
			m.mu.Lock()
			m.depthUpdateQueue.PushBack(update)
			m.mu.Unlock()

			select {
			case m.wake <- struct{}{}:
			default:
			}
		}
	}
}

func (m *OrderbookMaintainer) queueReader(ctx context.Context, streamDone <-chan struct{}) error {
	for {
		if update, ok := m.popUpdate(); ok {
			m.apply(update)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.wake:
		case <-streamDone:
			if m.queueLen() == 0 {
				m.logger.Warn("order book stream closed")
				return ErrStreamClosed
			}
		}
	}
}

func (m *OrderbookMaintainer) popUpdate() (*OrderBookUpdate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.depthUpdateQueue.Len() == 0 {
		return nil, false
	}
	return m.depthUpdateQueue.PopFront(), true
}

func (m *OrderbookMaintainer) queueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.depthUpdateQueue.Len()
}

func (m *OrderbookMaintainer) apply(update *OrderBookUpdate) {
	result, err := m.applier.Apply(update)
	switch {
	case errors.Is(err, ErrOutOfOrderDiff):
		m.OutOfOrderDiff.Add(1)
		for _, o := range m.observers {
			o.OnOutOfOrderDiff(m.symbol)
		}
		return
	case errors.Is(err, ErrBookDesynced):
		m.logger.Debug("diff refused while waiting for snapshot")
		return
	case err != nil:
		m.logger.Error("failed to apply update", zap.Error(err))
		return
	}

	if update.Kind == UpdateKind_Reset {
		// the feed resubscribes on its own; later diffs are dropped until its snapshot
		m.setState(result.State)
		return
	}

	for _, o := range m.observers {
		o.OnVerification(m.symbol, result.Verification)
	}
	m.setState(result.State)

	if result.State == SyncState_Synced {
		m.syncedOnce.Do(func() { close(m.synced) })
	}

	if err := result.Verification.Err(); err != nil {
		m.logger.Error("local order book diverged from venue, resubscribing", zap.Error(err))
		m.resubscribe()
	}
}

// resubscribe discards the local book and anything queued for the old stream,
// then asks the venue for a fresh snapshot.
func (m *OrderbookMaintainer) resubscribe() {
	m.mu.Lock()
	m.depthUpdateQueue.Clear()
	m.mu.Unlock()

	m.applier.Reset()
	m.setState(SyncState_Unsynced)

	m.Resubscribes.Add(1)
	for _, o := range m.observers {
		o.OnResubscribe(m.symbol)
	}

	if err := m.streamAPI.Resubscribe(m.symbol); err != nil {
		m.logger.Error("resubscribe failed", zap.Error(err))
	}
}

func (m *OrderbookMaintainer) setState(state SyncState) {
	if m.state.Swap(state) == state {
		return
	}
	m.logger.Info("order book state changed", zap.String("state", string(state)))
	for _, o := range m.observers {
		o.OnStateChange(m.symbol, state)
	}
}
