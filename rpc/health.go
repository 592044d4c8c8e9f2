package rpc

import (
	"github.com/spooky-finn/cryptobridge/domain"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthObserver reports each market as a health service named after it:
// SERVING while the book is synced, NOT_SERVING otherwise.
type HealthObserver struct {
	server *health.Server
}

func NewHealthObserver() *HealthObserver {
	return &HealthObserver{server: health.NewServer()}
}

func (h *HealthObserver) OnStateChange(symbol *domain.MarketSymbol, state domain.SyncState) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if state == domain.SyncState_Synced {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus(symbol.String(), status)
}

func (h *HealthObserver) OnVerification(*domain.MarketSymbol, domain.VerificationOutcome) {}

func (h *HealthObserver) OnOutOfOrderDiff(*domain.MarketSymbol) {}

func (h *HealthObserver) OnResubscribe(*domain.MarketSymbol) {}
