package ftx

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const orderBookChannel = "orderbook"

const (
	opSubscribe   = "subscribe"
	opUnsubscribe = "unsubscribe"
	opPing        = "ping"
)

const (
	typePartial      = "partial"
	typeUpdate       = "update"
	typeSubscribed   = "subscribed"
	typeUnsubscribed = "unsubscribed"
	typeError        = "error"
	typeInfo         = "info"
	typePong         = "pong"
)

// infoCodeReconnect is sent when the venue is about to restart and clients should reconnect.
const infoCodeReconnect = 20001

type Request struct {
	Op      string `json:"op"`
	Channel string `json:"channel,omitempty"`
	Market  string `json:"market,omitempty"`
}

type Response struct {
	Channel string          `json:"channel"`
	Market  string          `json:"market"`
	Type    string          `json:"type"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

type OrderBookData struct {
	Action   string              `json:"action"`
	Time     float64             `json:"time"`
	Checksum *uint32             `json:"checksum"`
	Bids     [][]decimal.Decimal `json:"bids"`
	Asks     [][]decimal.Decimal `json:"asks"`
}
