package domain

import (
	"bytes"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// MaxFractionDigits is the venue's rendering precision for prices and sizes.
// The checksum only matches when values are printed exactly like the venue prints them.
const MaxFractionDigits = 10

// FormatDecimal renders d in the venue's fixed-point form: banker's rounding to
// MaxFractionDigits, trailing zeros trimmed down to a single fractional digit,
// no grouping and no exponent. 100 -> "100.0", 0.5 -> "0.5".
func FormatDecimal(d decimal.Decimal) string {
	s := d.StringFixedBank(MaxFractionDigits)

	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".0"
	}

	end := len(s)
	for end > dot+2 && s[end-1] == '0' {
		end--
	}
	return s[:end]
}

// AppendDecimal appends the FormatDecimal rendering of d to buf.
func AppendDecimal(buf *bytes.Buffer, d decimal.Decimal) {
	buf.WriteString(FormatDecimal(d))
}

// FormatCache hands out serialization buffers. A buffer belongs to exactly one
// caller between Get and Put, so checksum runs for different markets never share state.
type FormatCache struct {
	pool sync.Pool
}

// checksumBufferSize fits 200 levels of typical venue precision without growing.
const checksumBufferSize = 3072

func NewFormatCache() *FormatCache {
	return &FormatCache{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, checksumBufferSize))
			},
		},
	}
}

func (c *FormatCache) Get() *bytes.Buffer {
	buf := c.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (c *FormatCache) Put(buf *bytes.Buffer) {
	// oversized buffers from pathological books are left to the GC
	if buf.Cap() > 16*checksumBufferSize {
		return
	}
	c.pool.Put(buf)
}

var defaultFormatCache = NewFormatCache()
