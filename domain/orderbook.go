package domain

import (
	"sync"
	"time"
)

type OrderBookSource string

const (
	OrderBookSource_Provider       OrderBookSource = "Provider"
	OrderBookSource_LocalOrderBook OrderBookSource = "LocalOrderBook"
)

// OrderBookSnapshot is the published, string-rendered copy of a book.
type OrderBookSnapshot struct {
	Source    OrderBookSource `json:"source"`
	Market    string          `json:"market"`
	Timestamp time.Time       `json:"timestamp"`
	Checksum  uint32          `json:"checksum"`
	Bids      [][]string      `json:"bids"`
	Asks      [][]string      `json:"asks"`
}

// BookView is an immutable copy of a book's state at one instant.
type BookView struct {
	Market *MarketSymbol
	Bids   []PriceLevel
	Asks   []PriceLevel
	AsOf   time.Time
}

// OrderBook is the local replica of one market. Writes must come from a single
// goroutine in feed order; the lock only protects concurrent readers.
type OrderBook struct {
	Market *MarketSymbol

	bids      *PriceLevelSet
	asks      *PriceLevelSet
	timestamp time.Time

	now      func() time.Time
	updateMx sync.RWMutex
}

type OrderBookOption func(*OrderBook)

// WithClock overrides the time source used to stamp applied updates.
func WithClock(now func() time.Time) OrderBookOption {
	return func(ob *OrderBook) {
		ob.now = now
	}
}

func NewOrderBook(market *MarketSymbol, opts ...OrderBookOption) *OrderBook {
	ob := &OrderBook{
		Market: market,
		bids:   NewPriceLevelSet(Side_Bid),
		asks:   NewPriceLevelSet(Side_Ask),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

// ApplySnapshot replaces both sides with the given levels.
func (ob *OrderBook) ApplySnapshot(bids, asks []PriceLevel) BookView {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()

	ob.bids.ReplaceAll(bids)
	ob.asks.ReplaceAll(asks)
	ob.timestamp = ob.now()

	return ob.view(0)
}

// ApplyDiff upserts every level in the order received; a repeated price within
// one batch ends up with its last size.
func (ob *OrderBook) ApplyDiff(bids, asks []PriceLevel) BookView {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()

	for _, level := range bids {
		ob.bids.Upsert(level)
	}
	for _, level := range asks {
		ob.asks.Upsert(level)
	}
	ob.timestamp = ob.now()

	return ob.view(0)
}

// Clear empties the book, used when the feed is resubscribed.
func (ob *OrderBook) Clear() {
	ob.updateMx.Lock()
	defer ob.updateMx.Unlock()

	ob.bids.Clear()
	ob.asks.Clear()
	ob.timestamp = time.Time{}
}

// View copies at most limit levels per side; limit <= 0 copies everything.
func (ob *OrderBook) View(limit int) BookView {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return ob.view(limit)
}

func (ob *OrderBook) view(limit int) BookView {
	return BookView{
		Market: ob.Market,
		Bids:   ob.bids.Levels(limit),
		Asks:   ob.asks.Levels(limit),
		AsOf:   ob.timestamp,
	}
}

// HasBothSides reports whether the checksum is meaningful for the current state.
func (ob *OrderBook) HasBothSides() bool {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return ob.bids.Len() > 0 && ob.asks.Len() > 0
}

func (ob *OrderBook) Depth() (bids int, asks int) {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return ob.bids.Len(), ob.asks.Len()
}

func (ob *OrderBook) Timestamp() time.Time {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return ob.timestamp
}

// Checksum computes the venue checksum of the current state with codec.
func (ob *OrderBook) Checksum(codec *ChecksumCodec) uint32 {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return codec.Checksum(ob.bids, ob.asks)
}

// ChecksumInput returns the exact text the checksum is computed over.
func (ob *OrderBook) ChecksumInput(codec *ChecksumCodec) string {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return codec.Serialize(ob.bids, ob.asks)
}

func (ob *OrderBook) TakeSnapshot(limit int) *OrderBookSnapshot {
	ob.updateMx.RLock()
	defer ob.updateMx.RUnlock()

	return &OrderBookSnapshot{
		Source:    OrderBookSource_LocalOrderBook,
		Market:    ob.Market.String(),
		Timestamp: ob.timestamp,
		Checksum:  defaultChecksumCodec.Checksum(ob.bids, ob.asks),
		Bids:      SerializePriceLevels(ob.bids.Levels(limit)),
		Asks:      SerializePriceLevels(ob.asks.Levels(limit)),
	}
}
