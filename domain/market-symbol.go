package domain

import (
	"fmt"
	"strings"
)

type MarketKind string

const (
	MarketKind_Spot   MarketKind = "spot"
	MarketKind_Future MarketKind = "future"
)

// MarketSymbol identifies one instrument on the venue.
// Spot markets carry base and quote assets, futures carry the underlying and the contract suffix.
type MarketSymbol struct {
	BaseAsset  string
	QuoteAsset string
	Contract   string
	Kind       MarketKind
}

func NewMarketSymbol(base string, quote string) (*MarketSymbol, error) {
	if base == "" || quote == "" {
		return nil, fmt.Errorf("base and quote must not be empty")
	}
	base = strings.ToUpper(base)
	quote = strings.ToUpper(quote)
	if base == quote {
		return nil, fmt.Errorf("base and quote must be different")
	}
	return &MarketSymbol{
		BaseAsset:  base,
		QuoteAsset: quote,
		Kind:       MarketKind_Spot,
	}, nil
}

func NewFutureSymbol(underlying string, contract string) (*MarketSymbol, error) {
	if underlying == "" || contract == "" {
		return nil, fmt.Errorf("underlying and contract must not be empty")
	}
	return &MarketSymbol{
		BaseAsset: strings.ToUpper(underlying),
		Contract:  strings.ToUpper(contract),
		Kind:      MarketKind_Future,
	}, nil
}

// NewMarketSymbolFromString accepts venue names ("BTC/USD", "BTC-PERP") and the
// underscore form used in configs ("btc_usd").
func NewMarketSymbolFromString(s string) (*MarketSymbol, error) {
	s = strings.TrimSpace(s)

	for _, sep := range []string{"/", "_"} {
		if strings.Contains(s, sep) {
			split := strings.Split(s, sep)
			if len(split) != 2 {
				return nil, fmt.Errorf("invalid symbol string %q", s)
			}
			return NewMarketSymbol(split[0], split[1])
		}
	}

	if split := strings.Split(s, "-"); len(split) == 2 {
		return NewFutureSymbol(split[0], split[1])
	}

	return nil, fmt.Errorf("invalid symbol string %q", s)
}

func MustMarketSymbol(s string) *MarketSymbol {
	ms, err := NewMarketSymbolFromString(s)
	if err != nil {
		panic(err)
	}
	return ms
}

func (ms *MarketSymbol) Join(separator string) string {
	if ms.Kind == MarketKind_Future {
		return fmt.Sprintf("%s%s%s", ms.BaseAsset, separator, ms.Contract)
	}
	return fmt.Sprintf("%s%s%s", ms.BaseAsset, separator, ms.QuoteAsset)
}

// String returns the market name as the venue spells it on the wire.
func (ms *MarketSymbol) String() string {
	if ms == nil {
		return ""
	}
	if ms.Kind == MarketKind_Future {
		return ms.Join("-")
	}
	return ms.Join("/")
}

func (ms *MarketSymbol) Equal(other *MarketSymbol) bool {
	if other == nil {
		return false
	}
	return ms.Kind == other.Kind &&
		ms.BaseAsset == other.BaseAsset &&
		ms.QuoteAsset == other.QuoteAsset &&
		ms.Contract == other.Contract
}
