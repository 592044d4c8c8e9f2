package ftx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/recws-org/recws"
	"github.com/spooky-finn/cryptobridge/config"
	"github.com/spooky-finn/cryptobridge/domain"
	"go.uber.org/zap"
)

const (
	ftxDefaultWebsocketEndpoint = "wss://ftx.com/ws/"
	defaultPingInterval         = 15 * time.Second
	readRetryDelay              = 100 * time.Millisecond
	subscriptionBufferSize      = 256
)

var (
	ErrAlreadySubscribed = errors.New("ftx: market already subscribed")
	ErrNotSubscribed     = errors.New("ftx: market is not subscribed")
	ErrClientClosed      = errors.New("ftx: stream client closed")
)

// wsConn is the part of recws.RecConn the client talks to.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	IsConnected() bool
	Close()
}

type reconnector interface {
	CloseAndReconnect()
}

type subscriptionEntry struct {
	ch     chan *Response
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// close unblocks a pending dispatch before closing the stream channel.
func (e *subscriptionEntry) close() {
	close(e.done)
	e.mu.Lock()
	e.closed = true
	close(e.ch)
	e.mu.Unlock()
}

func (e *subscriptionEntry) deliver(msg *Response) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.ch <- msg:
	case <-e.done:
	}
}

type FTXStreamClient struct {
	endpoint         string
	pingInterval     time.Duration
	handshakeTimeout time.Duration

	conn    wsConn
	writeMu sync.Mutex

	subscriptions map[string]*subscriptionEntry
	mu            sync.Mutex
	closed        bool

	logger *zap.Logger
}

func NewFTXStreamClient(cfg config.FTXConfig, logger *zap.Logger) *FTXStreamClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WSEndpoint == "" {
		cfg.WSEndpoint = ftxDefaultWebsocketEndpoint
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	return &FTXStreamClient{
		endpoint:         cfg.WSEndpoint,
		pingInterval:     cfg.PingInterval,
		handshakeTimeout: cfg.HandshakeTimeout,
		subscriptions:    make(map[string]*subscriptionEntry),
		logger:           logger.Named("ftx-stream-client"),
	}
}

// Connect dials the venue and starts the read and ping loops. The connection
// reconnects on its own; every open subscription is renewed after a reconnect.
func (c *FTXStreamClient) Connect(ctx context.Context) error {
	conn := &recws.RecConn{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.handshakeTimeout,
		NonVerbose:       !config.DebugMode,
	}
	// the handler runs on the dialer goroutine and a returned error is fatal there
	conn.SubscribeHandler = func() error {
		c.resubscribeAll(conn)
		return nil
	}

	c.conn = conn
	conn.Dial(c.endpoint, nil)

	if !conn.IsConnected() {
		c.logger.Warn("ftx websocket not connected yet, retrying in background", zap.String("endpoint", c.endpoint))
	} else {
		c.logger.Info("connected to the ftx stream websocket", zap.String("endpoint", c.endpoint))
	}

	c.start(ctx)
	return nil
}

func (c *FTXStreamClient) start(ctx context.Context) {
	go c.read(ctx)
	go c.ping(ctx)
}

// Subscribe opens the orderbook channel for market. Only one subscriber per market is allowed.
func (c *FTXStreamClient) Subscribe(market string) (*domain.Subscription[*Response], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if _, ok := c.subscriptions[market]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadySubscribed, market)
	}
	entry := &subscriptionEntry{
		ch:   make(chan *Response, subscriptionBufferSize),
		done: make(chan struct{}),
	}
	c.subscriptions[market] = entry
	c.mu.Unlock()

	sub := &domain.Subscription[*Response]{
		Stream: entry.ch,
		Unsubscribe: func() {
			if err := c.unsubscribe(market); err != nil {
				c.logger.Warn("unsubscribe failed", zap.String("market", market), zap.Error(err))
			}
		},
		Topic: orderBookChannel + ":" + market,
	}

	if c.conn == nil || !c.conn.IsConnected() {
		// sent by the subscribe handler once the connection is up
		c.logger.Info("orderbook subscription queued until connected", zap.String("market", market))
		return sub, nil
	}

	c.logger.Info("subscribing to the orderbook channel", zap.String("market", market))
	if err := c.send(c.conn, Request{Op: opSubscribe, Channel: orderBookChannel, Market: market}); err != nil {
		c.drop(market)
		return nil, fmt.Errorf("failed to send subscribe msg for market=%s: %w", market, err)
	}
	return sub, nil
}

// Resubscribe restarts the market's channel; the venue answers with a fresh partial.
func (c *FTXStreamClient) Resubscribe(market string) error {
	c.mu.Lock()
	_, ok := c.subscriptions[market]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSubscribed, market)
	}

	if err := c.send(c.conn, Request{Op: opUnsubscribe, Channel: orderBookChannel, Market: market}); err != nil {
		return fmt.Errorf("failed to send unsubscribe msg for market=%s: %w", market, err)
	}
	if err := c.send(c.conn, Request{Op: opSubscribe, Channel: orderBookChannel, Market: market}); err != nil {
		return fmt.Errorf("failed to send subscribe msg for market=%s: %w", market, err)
	}
	return nil
}

func (c *FTXStreamClient) unsubscribe(market string) error {
	if !c.drop(market) {
		return nil
	}
	c.logger.Info("unsubscribing from the orderbook channel", zap.String("market", market))
	return c.send(c.conn, Request{Op: opUnsubscribe, Channel: orderBookChannel, Market: market})
}

func (c *FTXStreamClient) drop(market string) bool {
	c.mu.Lock()
	entry, ok := c.subscriptions[market]
	delete(c.subscriptions, market)
	c.mu.Unlock()

	if ok {
		entry.close()
	}
	return ok
}

// Close ends every subscription stream and the connection.
func (c *FTXStreamClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	entries := c.subscriptions
	c.subscriptions = make(map[string]*subscriptionEntry)
	c.mu.Unlock()

	for _, entry := range entries {
		entry.close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *FTXStreamClient) markets() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	markets := make([]string, 0, len(c.subscriptions))
	for market := range c.subscriptions {
		markets = append(markets, market)
	}
	return markets
}

func (c *FTXStreamClient) resubscribeAll(conn wsConn) {
	for _, market := range c.markets() {
		if err := c.send(conn, Request{Op: opSubscribe, Channel: orderBookChannel, Market: market}); err != nil {
			c.logger.Error("failed to renew subscription after reconnect", zap.String("market", market), zap.Error(err))
		}
	}
}

func (c *FTXStreamClient) send(conn wsConn, req Request) error {
	if conn == nil {
		return ErrClientClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.WriteJSON(req)
}

func (c *FTXStreamClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FTXStreamClient) read(ctx context.Context) {
	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		msgType, msg, err := c.conn.ReadMessage()
		if err != nil {
			if config.DebugMode {
				c.logger.Debug("error while reading from connection", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(readRetryDelay):
			}
			continue
		}
		if msgType != websocket.TextMessage {
			continue
		}

		c.dispatch(msg)
	}
}

func (c *FTXStreamClient) dispatch(raw []byte) {
	var msg Response
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.Error("failed to decode message", zap.Error(err), zap.ByteString("message", raw))
		return
	}

	switch msg.Type {
	case typePong:
	case typeSubscribed, typeUnsubscribed:
		c.logger.Debug("subscription ack", zap.String("type", msg.Type), zap.String("market", msg.Market))
	case typeError:
		c.logger.Error("venue error", zap.Int("code", msg.Code), zap.String("msg", msg.Msg), zap.String("market", msg.Market))
	case typeInfo:
		c.logger.Warn("venue info", zap.Int("code", msg.Code), zap.String("msg", msg.Msg))
		if msg.Code == infoCodeReconnect {
			if r, ok := c.conn.(reconnector); ok {
				r.CloseAndReconnect()
			}
		}
	case typePartial, typeUpdate:
		if msg.Channel != orderBookChannel {
			return
		}
		c.mu.Lock()
		entry, ok := c.subscriptions[msg.Market]
		c.mu.Unlock()
		if ok {
			entry.deliver(&msg)
		}
	default:
		c.logger.Debug("unhandled message", zap.String("type", msg.Type))
	}
}

func (c *FTXStreamClient) ping(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.isClosed() {
				return
			}
			if !c.conn.IsConnected() {
				continue
			}
			if err := c.send(c.conn, Request{Op: opPing}); err != nil {
				c.logger.Warn("ping failed", zap.Error(err))
			}
		}
	}
}
