package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spooky-finn/cryptobridge/domain"
)

// DebugMode turns on verbose logging across packages. Set by Load from APP_DEBUG.
var DebugMode = false

type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	FTX       FTXConfig       `envPrefix:"FTX_"`
	GRPC      GRPCConfig      `envPrefix:"GRPC_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
	OrderBook OrderBookConfig `envPrefix:"ORDERBOOK_"`
}

type AppConfig struct {
	Name     string `env:"NAME" envDefault:"cryptobridge"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"DEBUG" envDefault:"false"`
}

type FTXConfig struct {
	WSEndpoint       string        `env:"WS_ENDPOINT" envDefault:"wss://ftx.com/ws/"`
	Markets          []string      `env:"MARKETS" envSeparator:"," envDefault:"BTC/USD,ETH/USD"`
	PingInterval     time.Duration `env:"PING_INTERVAL" envDefault:"15s"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"5s"`
}

type GRPCConfig struct {
	Addr string `env:"ADDR" envDefault:":50051"`
}

type MetricsConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

type OrderBookConfig struct {
	// Upper bound for the depth a snapshot request may ask for.
	MaxDepth int `env:"MAX_DEPTH" envDefault:"100"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return parse(env.Options{})
}

// LoadFromEnvironment parses the given variables only; the process environment is ignored.
func LoadFromEnvironment(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	DebugMode = cfg.App.Debug
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.FTX.Markets) == 0 {
		return errors.New("config: FTX_MARKETS must list at least one market")
	}
	if _, err := c.MarketSymbols(); err != nil {
		return err
	}
	if c.FTX.PingInterval <= 0 {
		return errors.New("config: FTX_PING_INTERVAL must be positive")
	}
	if c.FTX.HandshakeTimeout <= 0 {
		return errors.New("config: FTX_HANDSHAKE_TIMEOUT must be positive")
	}
	if c.OrderBook.MaxDepth <= 0 {
		return errors.New("config: ORDERBOOK_MAX_DEPTH must be positive")
	}
	return nil
}

func (c *Config) MarketSymbols() ([]*domain.MarketSymbol, error) {
	symbols := make([]*domain.MarketSymbol, 0, len(c.FTX.Markets))
	for _, market := range c.FTX.Markets {
		symbol, err := domain.NewMarketSymbolFromString(market)
		if err != nil {
			return nil, fmt.Errorf("config: FTX_MARKETS: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, nil
}
