package rpc

import (
	"context"
	"errors"

	"github.com/spooky-finn/cryptobridge/domain"
	"github.com/spooky-finn/cryptobridge/usecase"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *Server) GetOrderBookSnapshot(ctx context.Context, in *GetOrderBookSnapshotRequest) (*GetOrderBookSnapshotResponse, error) {
	marketSymbol, err := domain.NewMarketSymbolFromString(in.Market)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid market symbol %q. Use BASE/QUOTE or UNDERLYING-CONTRACT", in.Market)
	}

	if !s.validationService.IsSupportedMarket(marketSymbol) {
		return nil, status.Errorf(codes.NotFound, "market %s is not supported", marketSymbol)
	}

	snapshot, err := s.orderbookSnapshotUseCase.GetOrderBookSnapshot(marketSymbol, s.depth(in.MaxDepth))
	switch {
	case errors.Is(err, usecase.ErrOrderBookNotReady):
		return nil, status.Errorf(codes.Unavailable, "order book for %s is not synced yet", marketSymbol)
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}

	return &GetOrderBookSnapshotResponse{
		Source:    selectOrderBookSource(snapshot.Source),
		Market:    snapshot.Market,
		Timestamp: snapshot.Timestamp.UnixMilli(),
		Checksum:  snapshot.Checksum,
		Bids:      adaptLevels(snapshot.Bids),
		Asks:      adaptLevels(snapshot.Asks),
	}, nil
}

// depth clamps the requested depth to the configured maximum; zero means the maximum.
func (s *Server) depth(requested int32) int {
	if requested <= 0 || int(requested) > s.maxDepth {
		return s.maxDepth
	}
	return int(requested)
}

func adaptLevels(depth [][]string) []*OrderBookLevel {
	levels := make([]*OrderBookLevel, 0, len(depth))
	for _, level := range depth {
		levels = append(levels, &OrderBookLevel{
			Price: level[0],
			Qty:   level[1],
		})
	}
	return levels
}

func selectOrderBookSource(source domain.OrderBookSource) OrderBookSource {
	switch source {
	case domain.OrderBookSource_LocalOrderBook:
		return OrderBookSource_LocalOrderBook
	case domain.OrderBookSource_Provider:
		return OrderBookSource_Provider
	default:
		return OrderBookSource_Unknown
	}
}
