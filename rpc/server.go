package rpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spooky-finn/cryptobridge/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

type snapshotUseCase interface {
	GetOrderBookSnapshot(symbol *domain.MarketSymbol, limit int) (*domain.OrderBookSnapshot, error)
}

type ServerConfig struct {
	Validation *ValidationServiceConfig
	MaxDepth   int
}

type Server struct {
	orderbookSnapshotUseCase snapshotUseCase
	validationService        *ValidationService
	maxDepth                 int

	grpcServer   *grpc.Server
	healthServer *health.Server
	logger       *zap.Logger
}

func NewServer(conf *ServerConfig, uc snapshotUseCase, healthObserver *HealthObserver, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("rpc")

	s := &Server{
		orderbookSnapshotUseCase: uc,
		validationService:        NewValidationService(conf.Validation),
		maxDepth:                 conf.MaxDepth,
		healthServer:             healthObserver.server,
		logger:                   logger,
	}

	s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	RegisterMarketDataServiceServer(s.grpcServer, s)
	healthpb.RegisterHealthServer(s.grpcServer, s.healthServer)
	reflection.Register(s.grpcServer)

	for _, market := range conf.Validation.AvailableMarkets {
		s.healthServer.SetServingStatus(market.String(), healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		s.healthServer.Shutdown()
		s.grpcServer.GracefulStop()
	}()

	s.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		logger.Debug("rpc",
			zap.String("method", info.FullMethod),
			zap.Duration("took", time.Since(start)),
			zap.Stringer("code", status.Code(err)),
		)
		return resp, err
	}
}
