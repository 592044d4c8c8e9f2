package promclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spooky-finn/cryptobridge/domain"
	"go.uber.org/zap"
)

// Metrics counts order book maintenance events. It is a domain.MaintainerObserver.
type Metrics struct {
	Verifications   *prometheus.CounterVec
	OutOfOrderDiffs *prometheus.CounterVec
	Desyncs         *prometheus.CounterVec
	Resubscriptions *prometheus.CounterVec
	OpenOrderBooks  prometheus.GaugeFunc
	SyncedOrderBook *prometheus.GaugeVec

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderbook_checksum_verifications_total",
			Help: "checksum verifications by market and outcome",
		}, []string{"market", "outcome"}),
		OutOfOrderDiffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderbook_out_of_order_diffs_total",
			Help: "diffs dropped because no snapshot was applied yet",
		}, []string{"market"}),
		Desyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderbook_desyncs_total",
			Help: "checksum mismatches",
		}, []string{"market"}),
		Resubscriptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "orderbook_resubscriptions_total",
			Help: "resubscriptions triggered by a desync",
		}, []string{"market"}),
		SyncedOrderBook: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orderbook_synced",
			Help: "1 when the market's book is synced with the venue",
		}, []string{"market"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Verifications,
		m.OutOfOrderDiffs,
		m.Desyncs,
		m.Resubscriptions,
		m.SyncedOrderBook,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type orderBookCounter interface {
	OrderBookCount() int
}

// TrackOpenOrderBooks exports the number of books held by storage. Call it once.
func (m *Metrics) TrackOpenOrderBooks(storage orderBookCounter) {
	m.OpenOrderBooks = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "orderbook_open_books",
		Help: "maintained order books",
	}, func() float64 {
		return float64(storage.OrderBookCount())
	})
	m.registry.MustRegister(m.OpenOrderBooks)
}

func (m *Metrics) OnVerification(symbol *domain.MarketSymbol, outcome domain.VerificationOutcome) {
	m.Verifications.WithLabelValues(symbol.String(), string(outcome.Result)).Inc()
	if outcome.IsMismatch() {
		m.Desyncs.WithLabelValues(symbol.String()).Inc()
	}
}

func (m *Metrics) OnOutOfOrderDiff(symbol *domain.MarketSymbol) {
	m.OutOfOrderDiffs.WithLabelValues(symbol.String()).Inc()
}

func (m *Metrics) OnStateChange(symbol *domain.MarketSymbol, state domain.SyncState) {
	synced := 0.0
	if state == domain.SyncState_Synced {
		synced = 1
	}
	m.SyncedOrderBook.WithLabelValues(symbol.String()).Set(synced)
}

func (m *Metrics) OnResubscribe(symbol *domain.MarketSymbol) {
	m.Resubscriptions.WithLabelValues(symbol.String()).Inc()
}

// StartPromClientServer serves /metrics on addr until ctx is cancelled.
func (m *Metrics) StartPromClientServer(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Named("promclient").Info("prometheus server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
