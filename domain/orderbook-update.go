package domain

import "time"

type UpdateKind string

const (
	UpdateKind_Snapshot UpdateKind = "snapshot"
	UpdateKind_Diff     UpdateKind = "diff"
	// The feed lost a message; the book must be discarded until the next snapshot.
	UpdateKind_Reset    UpdateKind = "reset"
)

// OrderBookUpdate is one parsed feed message for a market.
// Checksum is nil when the venue did not send one.
type OrderBookUpdate struct {
	Kind     UpdateKind
	Market   *MarketSymbol
	Bids     []PriceLevel
	Asks     []PriceLevel
	Checksum *uint32
	Time     time.Time
}

func NewSnapshotUpdate(market *MarketSymbol, bids, asks []PriceLevel, checksum *uint32) *OrderBookUpdate {
	return &OrderBookUpdate{
		Kind:     UpdateKind_Snapshot,
		Market:   market,
		Bids:     bids,
		Asks:     asks,
		Checksum: checksum,
	}
}

func NewDiffUpdate(market *MarketSymbol, bids, asks []PriceLevel, checksum *uint32) *OrderBookUpdate {
	return &OrderBookUpdate{
		Kind:     UpdateKind_Diff,
		Market:   market,
		Bids:     bids,
		Asks:     asks,
		Checksum: checksum,
	}
}

func NewResetUpdate(market *MarketSymbol) *OrderBookUpdate {
	return &OrderBookUpdate{
		Kind:   UpdateKind_Reset,
		Market: market,
	}
}

// Subscription is a stream of values with a way to stop it.
type Subscription[T any] struct {
	Stream      <-chan T
	Unsubscribe func()
	Topic       string
}
