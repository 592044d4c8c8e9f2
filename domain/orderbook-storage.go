package domain

import (
	"errors"
	"sort"
	"sync"
)

var ErrOrderBookNotFound = errors.New("order book not found")

// OrderBookStorage is the runtime registry of maintained books, keyed by market name.
type OrderBookStorage struct {
	mu      sync.RWMutex
	storage map[string]*OrderbookMaintainer
}

func NewOrderBookStorage() *OrderBookStorage {
	return &OrderBookStorage{
		storage: make(map[string]*OrderbookMaintainer),
	}
}

func (o *OrderBookStorage) Add(symbol *MarketSymbol, maintainer *OrderbookMaintainer) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.storage[symbol.String()] = maintainer
}

func (o *OrderBookStorage) Get(symbol *MarketSymbol) (*OrderbookMaintainer, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	maintainer, ok := o.storage[symbol.String()]
	if !ok {
		return nil, ErrOrderBookNotFound
	}
	return maintainer, nil
}

func (o *OrderBookStorage) Remove(symbol *MarketSymbol) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.storage, symbol.String())
}

func (o *OrderBookStorage) OrderBookCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.storage)
}

// Markets lists stored market names in lexical order.
func (o *OrderBookStorage) Markets() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	markets := make([]string, 0, len(o.storage))
	for market := range o.storage {
		markets = append(markets, market)
	}
	sort.Strings(markets)
	return markets
}
