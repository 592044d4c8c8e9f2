package provider

import (
	"context"
	"fmt"

	"github.com/spooky-finn/cryptobridge/config"
	"github.com/spooky-finn/cryptobridge/domain"
	"github.com/spooky-finn/cryptobridge/provider/ftx"
	"go.uber.org/zap"
)

const FTX = "ftx"

type ConnectionManager struct {
	FTXWS        *ftx.FTXStreamClient
	FTXStreamAPI *ftx.FTXStreamAPI

	logger *zap.Logger
}

func NewConnectionManager(cfg *config.Config, logger *zap.Logger) *ConnectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ftxStreamClient := ftx.NewFTXStreamClient(cfg.FTX, logger)

	return &ConnectionManager{
		FTXWS:        ftxStreamClient,
		FTXStreamAPI: ftx.NewFTXStreamAPI(ftxStreamClient, logger),
		logger:       logger.Named("connection-manager"),
	}
}

// Init dials every provider. Connections keep reconnecting until ctx is cancelled.
func (cm *ConnectionManager) Init(ctx context.Context) error {
	if err := cm.FTXWS.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to ftx ws: %w", err)
	}
	return nil
}

func (cm *ConnectionManager) StreamAPI(provider string) (domain.ProviderStreamAPI, error) {
	switch provider {
	case FTX:
		return cm.FTXStreamAPI, nil
	}
	return nil, fmt.Errorf("unknown provider: %s", provider)
}

func (cm *ConnectionManager) Close() {
	cm.FTXWS.Close()
	cm.logger.Info("provider connections closed")
}
