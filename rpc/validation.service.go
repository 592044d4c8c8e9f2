package rpc

import "github.com/spooky-finn/cryptobridge/domain"

type ValidationServiceConfig struct {
	// An empty list accepts every market.
	AvailableMarkets []*domain.MarketSymbol
}

type ValidationService struct {
	config *ValidationServiceConfig
}

func NewValidationService(config *ValidationServiceConfig) *ValidationService {
	return &ValidationService{
		config: config,
	}
}

func (s *ValidationService) IsSupportedMarket(symbol *domain.MarketSymbol) bool {
	if len(s.config.AvailableMarkets) == 0 {
		return true
	}
	for _, m := range s.config.AvailableMarkets {
		if m.Equal(symbol) {
			return true
		}
	}
	return false
}
