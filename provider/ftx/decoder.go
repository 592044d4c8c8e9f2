package ftx

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/spooky-finn/cryptobridge/domain"
)

// DecodeOrderBookMessage turns an orderbook channel message into a domain update.
// Levels that are not [price, size] pairs with a positive price and a non-negative
// size are rejected with domain.ErrMalformedLevel so they never reach the book.
func DecodeOrderBookMessage(symbol *domain.MarketSymbol, msg *Response) (*domain.OrderBookUpdate, error) {
	var kind domain.UpdateKind
	switch msg.Type {
	case typePartial:
		kind = domain.UpdateKind_Snapshot
	case typeUpdate:
		kind = domain.UpdateKind_Diff
	default:
		return nil, fmt.Errorf("ftx: unexpected %s message type %q", msg.Channel, msg.Type)
	}

	var data OrderBookData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return nil, fmt.Errorf("ftx: decode %s order book data: %w", msg.Market, err)
	}

	bids, err := domain.LevelsFromPairs(data.Bids)
	if err != nil {
		return nil, fmt.Errorf("ftx: %s bids: %w", msg.Market, err)
	}
	asks, err := domain.LevelsFromPairs(data.Asks)
	if err != nil {
		return nil, fmt.Errorf("ftx: %s asks: %w", msg.Market, err)
	}

	return &domain.OrderBookUpdate{
		Kind:     kind,
		Market:   symbol,
		Bids:     bids,
		Asks:     asks,
		Checksum: data.Checksum,
		Time:     adaptTime(data.Time),
	}, nil
}

// adaptTime converts the venue's fractional unix seconds.
func adaptTime(t float64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(t)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
