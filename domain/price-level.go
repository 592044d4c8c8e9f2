package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Side_Bid Side = "bid"
	Side_Ask Side = "ask"
)

// PriceLevel is the aggregate resting size at one price.
// A zero size in an update means the price is removed from the book.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

func NewPriceLevel(price, size decimal.Decimal) PriceLevel {
	return PriceLevel{Price: price, Size: size}
}

// ParsePriceLevels converts venue [price, size] string pairs into levels.
func ParsePriceLevels(depth [][]string) ([]PriceLevel, error) {
	result := make([]PriceLevel, len(depth))
	for i, level := range depth {
		if len(level) != 2 {
			return nil, fmt.Errorf("price level %d: %w", i, ErrMalformedLevel)
		}
		price, err := decimal.NewFromString(level[0])
		if err != nil {
			return nil, fmt.Errorf("price level %d: price %q: %w", i, level[0], ErrMalformedLevel)
		}
		size, err := decimal.NewFromString(level[1])
		if err != nil {
			return nil, fmt.Errorf("price level %d: size %q: %w", i, level[1], ErrMalformedLevel)
		}
		if result[i], err = validLevel(i, price, size); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// LevelsFromPairs validates decoded [price, size] pairs the same way ParsePriceLevels does.
func LevelsFromPairs(depth [][]decimal.Decimal) ([]PriceLevel, error) {
	result := make([]PriceLevel, len(depth))
	for i, pair := range depth {
		if len(pair) != 2 {
			return nil, fmt.Errorf("price level %d has %d fields: %w", i, len(pair), ErrMalformedLevel)
		}
		level, err := validLevel(i, pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		result[i] = level
	}
	return result, nil
}

func validLevel(i int, price, size decimal.Decimal) (PriceLevel, error) {
	if !price.IsPositive() || size.IsNegative() {
		return PriceLevel{}, fmt.Errorf("price level %d: %s@%s: %w", i, size, price, ErrMalformedLevel)
	}
	return PriceLevel{Price: price, Size: size}, nil
}

func MustParsePriceLevels(depth [][]string) []PriceLevel {
	levels, err := ParsePriceLevels(depth)
	if err != nil {
		panic(err)
	}
	return levels
}

// SerializePriceLevels renders levels with the same decimal format the checksum uses.
func SerializePriceLevels(depth []PriceLevel) [][]string {
	result := make([][]string, len(depth))
	for i, level := range depth {
		result[i] = []string{
			FormatDecimal(level.Price),
			FormatDecimal(level.Size),
		}
	}

	return result
}
