package ftx

import (
	"context"

	"github.com/spooky-finn/cryptobridge/domain"
	"go.uber.org/zap"
)

// FTXStreamAPI adapts the orderbook channel to domain updates. It is a domain.ProviderStreamAPI.
type FTXStreamAPI struct {
	wc     *FTXStreamClient
	logger *zap.Logger
}

func NewFTXStreamAPI(wc *FTXStreamClient, logger *zap.Logger) *FTXStreamAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FTXStreamAPI{
		wc:     wc,
		logger: logger.Named("ftx-stream-api"),
	}
}

type OrderBookSubscription = *domain.Subscription[*domain.OrderBookUpdate]

func (s *FTXStreamAPI) OrderBookStream(ctx context.Context, symbol *domain.MarketSymbol) (OrderBookSubscription, error) {
	subscription, err := s.wc.Subscribe(symbol.String())
	if err != nil {
		return nil, err
	}
	out := make(chan *domain.OrderBookUpdate)

	go func() {
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-subscription.Stream:
				if !ok {
					return
				}
				update, err := DecodeOrderBookMessage(symbol, msg)
				if err != nil {
					// a dropped message leaves the book behind the venue, so start over
					s.logger.Error("dropping malformed order book message", zap.Stringer("market", symbol), zap.Error(err))
					if err := s.Resubscribe(symbol); err != nil {
						s.logger.Error("resubscribe failed", zap.Stringer("market", symbol), zap.Error(err))
					}
					update = domain.NewResetUpdate(symbol)
				}

				select {
				case out <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return &domain.Subscription[*domain.OrderBookUpdate]{
		Stream:      out,
		Topic:       subscription.Topic,
		Unsubscribe: subscription.Unsubscribe,
	}, nil
}

func (s *FTXStreamAPI) Resubscribe(symbol *domain.MarketSymbol) error {
	return s.wc.Resubscribe(symbol.String())
}
