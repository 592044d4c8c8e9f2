package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/spooky-finn/cryptobridge/domain"
	"go.uber.org/zap"
)

var ErrOrderBookNotReady = errors.New("order book is not synced yet")

const STARTING = "starting"

type OrderBookSnapshotUseCase struct {
	ctx       context.Context
	streamAPI domain.ProviderStreamAPI
	storage   *domain.OrderBookStorage
	observers []domain.MaintainerObserver
	logger    *zap.Logger

	// markets whose book has been started but has not received its first snapshot
	waitingRoom sync.Map
	startMx     sync.Mutex
	wg          sync.WaitGroup
}

// NewOrderBookSnapshotUseCase builds the use case. Books it starts live until ctx is cancelled.
func NewOrderBookSnapshotUseCase(
	ctx context.Context,
	streamAPI domain.ProviderStreamAPI,
	storage *domain.OrderBookStorage,
	logger *zap.Logger,
	observers ...domain.MaintainerObserver,
) *OrderBookSnapshotUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderBookSnapshotUseCase{
		ctx:       ctx,
		streamAPI: streamAPI,
		storage:   storage,
		observers: observers,
		logger:    logger.Named("orderbook-snapshot-usecase"),
	}
}

// GetOrderBookSnapshot returns up to limit levels per side of the local book.
// An unknown market gets a book started and ErrOrderBookNotReady until it syncs.
func (o *OrderBookSnapshotUseCase) GetOrderBookSnapshot(symbol *domain.MarketSymbol, limit int) (*domain.OrderBookSnapshot, error) {
	if _, ok := o.waitingRoom.Load(symbol.String()); ok {
		o.logger.Debug("orderbook is initing", zap.Stringer("market", symbol))
		return nil, ErrOrderBookNotReady
	}

	maintainer, err := o.storage.Get(symbol)
	if err != nil {
		o.StartOrderBook(symbol)
		return nil, ErrOrderBookNotReady
	}

	// a book that diverged stays hidden until the venue resends a snapshot
	if maintainer.State() != domain.SyncState_Synced {
		return nil, ErrOrderBookNotReady
	}

	return maintainer.OrderBook().TakeSnapshot(limit), nil
}

// StartOrderBook starts maintaining symbol's book unless it is already maintained.
func (o *OrderBookSnapshotUseCase) StartOrderBook(symbol *domain.MarketSymbol) *domain.OrderbookMaintainer {
	o.startMx.Lock()
	defer o.startMx.Unlock()

	if maintainer, err := o.storage.Get(symbol); err == nil {
		return maintainer
	}

	maintainer := domain.NewOrderBookMaintainer(symbol, o.streamAPI, o.logger, o.observers...)
	o.storage.Add(symbol, maintainer)
	o.waitingRoom.Store(symbol.String(), STARTING)

	// ends with the maintainer, so awaitSync never outlives a book that stopped unsynced
	bookCtx, stop := context.WithCancel(o.ctx)
	o.wg.Add(2)
	go o.run(bookCtx, stop, maintainer)
	go o.awaitSync(bookCtx, maintainer)

	o.logger.Info("orderbook is added to the runtime storage", zap.Stringer("market", symbol))
	return maintainer
}

func (o *OrderBookSnapshotUseCase) run(ctx context.Context, stop context.CancelFunc, maintainer *domain.OrderbookMaintainer) {
	defer o.wg.Done()
	defer stop()

	err := maintainer.Run(ctx)
	if o.ctx.Err() != nil {
		return
	}

	o.logger.Error("orderbook maintainer stopped", zap.Stringer("market", maintainer.Symbol()), zap.Error(err))
	o.startMx.Lock()
	o.storage.Remove(maintainer.Symbol())
	o.waitingRoom.Delete(maintainer.Symbol().String())
	o.startMx.Unlock()
}

func (o *OrderBookSnapshotUseCase) awaitSync(ctx context.Context, maintainer *domain.OrderbookMaintainer) {
	defer o.wg.Done()

	if err := maintainer.WaitSynced(ctx); err != nil {
		return
	}
	o.waitingRoom.Delete(maintainer.Symbol().String())
	o.logger.Info("orderbook synced", zap.Stringer("market", maintainer.Symbol()))
}

// Markets lists the markets with a maintained book.
func (o *OrderBookSnapshotUseCase) Markets() []string {
	return o.storage.Markets()
}

// Wait blocks until every started book has stopped.
func (o *OrderBookSnapshotUseCase) Wait() {
	o.wg.Wait()
}
