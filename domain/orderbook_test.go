package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBook(t *testing.T, now time.Time) *OrderBook {
	t.Helper()

	symbol, err := NewMarketSymbol("BTC", "USD")
	require.NoError(t, err)

	return NewOrderBook(symbol, WithClock(func() time.Time { return now }))
}

func TestOrderBook_ApplySnapshot(t *testing.T) {
	at := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	ob := newTestBook(t, at)

	ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"1", "1"}}),
		MustParsePriceLevels([][]string{{"5", "1"}}),
	)
	view := ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"9900", "2"}, {"10000", "1"}}),
		MustParsePriceLevels([][]string{{"10200", "2.5"}, {"10100", "1.5"}}),
	)

	assert.Equal(t, [][]string{{"10000.0", "1.0"}, {"9900.0", "2.0"}}, SerializePriceLevels(view.Bids))
	assert.Equal(t, [][]string{{"10100.0", "1.5"}, {"10200.0", "2.5"}}, SerializePriceLevels(view.Asks))
	assert.Equal(t, at, view.AsOf)
	assert.Equal(t, "BTC/USD", view.Market.String())
}

func TestOrderBook_ApplyDiff(t *testing.T) {
	ob := newTestBook(t, time.Unix(0, 0))

	ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"10000", "1"}, {"9900", "2"}}),
		MustParsePriceLevels([][]string{{"10.300", "1.5"}, {"10200", "2.5"}}),
	)

	view := ob.ApplyDiff(
		MustParsePriceLevels([][]string{{"9800", "3"}}),
		MustParsePriceLevels([][]string{{"10.3", "2"}, {"10200", "1"}, {"10200", "0"}}),
	)

	assert.Equal(t, [][]string{{"10000.0", "1.0"}, {"9900.0", "2.0"}, {"9800.0", "3.0"}}, SerializePriceLevels(view.Bids))
	assert.Equal(t, [][]string{{"10.3", "2.0"}}, SerializePriceLevels(view.Asks), "last duplicate in a batch wins")
}

func TestOrderBook_ViewIsImmutable(t *testing.T) {
	ob := newTestBook(t, time.Unix(0, 0))
	view := ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"100", "1"}}),
		MustParsePriceLevels([][]string{{"101", "1"}}),
	)

	ob.ApplyDiff(MustParsePriceLevels([][]string{{"100", "0"}}), nil)

	assert.Len(t, view.Bids, 1, "earlier views do not observe later diffs")
	bids, asks := ob.Depth()
	assert.Equal(t, 0, bids)
	assert.Equal(t, 1, asks)
}

func TestOrderBook_Scenario(t *testing.T) {
	ob := newTestBook(t, time.Unix(0, 0))
	codec := NewChecksumCodec(nil)

	ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"100.0", "2.0"}, {"99.5", "1.0"}}),
		MustParsePriceLevels([][]string{{"100.5", "3.0"}}),
	)
	view := ob.ApplyDiff(
		MustParsePriceLevels([][]string{{"100.0", "0"}}),
		MustParsePriceLevels([][]string{{"100.6", "1.0"}}),
	)

	assert.Equal(t, [][]string{{"99.5", "1.0"}}, SerializePriceLevels(view.Bids))
	assert.Equal(t, [][]string{{"100.5", "3.0"}, {"100.6", "1.0"}}, SerializePriceLevels(view.Asks))
	assert.Equal(t, "99.5:1.0:100.5:3.0:100.6:1.0", ob.ChecksumInput(codec))
	assert.Equal(t, uint32(166771630), ob.Checksum(codec))
}

func TestOrderBook_TakeSnapshot(t *testing.T) {
	at := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	ob := newTestBook(t, at)
	ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"10000", "1"}, {"9900", "2"}, {"9800", "3"}}),
		MustParsePriceLevels([][]string{{"10100", "1.5"}, {"10200", "2.5"}}),
	)

	result := ob.TakeSnapshot(2)

	assert.Equal(t, OrderBookSource_LocalOrderBook, result.Source)
	assert.Equal(t, "BTC/USD", result.Market)
	assert.Equal(t, at, result.Timestamp)
	assert.Equal(t, [][]string{{"10000.0", "1.0"}, {"9900.0", "2.0"}}, result.Bids)
	assert.Equal(t, [][]string{{"10100.0", "1.5"}, {"10200.0", "2.5"}}, result.Asks)
	assert.Equal(t, BookChecksum(ob), result.Checksum, "checksum covers the whole book, not the limit")
}

func TestOrderBook_Clear(t *testing.T) {
	ob := newTestBook(t, time.Unix(10, 0))
	ob.ApplySnapshot(
		MustParsePriceLevels([][]string{{"1", "1"}}),
		MustParsePriceLevels([][]string{{"2", "1"}}),
	)
	require.True(t, ob.HasBothSides())

	ob.Clear()

	assert.False(t, ob.HasBothSides())
	assert.True(t, ob.Timestamp().IsZero())
}

func TestParsePriceLevel(t *testing.T) {
	result, err := ParsePriceLevels([][]string{{"10000", "1"}, {"9900", "0"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"10000.0", "1.0"}, {"9900.0", "0.0"}}, SerializePriceLevels(result))

	tests := []struct {
		name  string
		depth [][]string
	}{
		{"MissingSize", [][]string{{"1"}}},
		{"BadPrice", [][]string{{"abc", "1"}}},
		{"BadSize", [][]string{{"1", "x"}}},
		{"NegativeSize", [][]string{{"1", "-1"}}},
		{"ZeroPrice", [][]string{{"0", "1"}}},
		{"ExtraField", [][]string{{"1", "1", "7"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePriceLevels(tt.depth)
			assert.ErrorIs(t, err, ErrMalformedLevel)
		})
	}
}

func TestLevelsFromPairs(t *testing.T) {
	d := decimal.RequireFromString

	result, err := LevelsFromPairs([][]decimal.Decimal{{d("100.5"), d("3")}, {d("100.6"), d("0")}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"100.5", "3.0"}, {"100.6", "0.0"}}, SerializePriceLevels(result))

	tests := []struct {
		name  string
		depth [][]decimal.Decimal
	}{
		{"Short", [][]decimal.Decimal{{d("1")}}},
		{"Long", [][]decimal.Decimal{{d("1"), d("1"), d("1")}}},
		{"NegativeSize", [][]decimal.Decimal{{d("1"), d("-0.1")}}},
		{"NegativePrice", [][]decimal.Decimal{{d("-1"), d("1")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LevelsFromPairs(tt.depth)
			assert.ErrorIs(t, err, ErrMalformedLevel)
		})
	}
}
