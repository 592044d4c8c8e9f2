package domain

import (
	"bytes"
	"hash/crc32"
)

// ChecksumDepth is the number of levels per side covered by the venue checksum.
const ChecksumDepth = 100

const checksumSeparator = ':'

// ChecksumCodec serializes the top of a book the way the venue does and hashes it.
type ChecksumCodec struct {
	depth int
	cache *FormatCache
}

func NewChecksumCodec(cache *FormatCache) *ChecksumCodec {
	if cache == nil {
		cache = defaultFormatCache
	}
	return &ChecksumCodec{depth: ChecksumDepth, cache: cache}
}

// Serialize returns the checksum input for the given sides: for every rank the bid
// "price:size:" then the ask "price:size:", with the final separator removed.
func (c *ChecksumCodec) Serialize(bids, asks *PriceLevelSet) string {
	buf := c.cache.Get()
	defer c.cache.Put(buf)

	c.writeLevels(buf, bids, asks)
	return buf.String()
}

// Checksum computes the CRC-32 (IEEE) of the serialized top levels.
func (c *ChecksumCodec) Checksum(bids, asks *PriceLevelSet) uint32 {
	buf := c.cache.Get()
	defer c.cache.Put(buf)

	c.writeLevels(buf, bids, asks)
	return crc32.ChecksumIEEE(buf.Bytes())
}

func (c *ChecksumCodec) writeLevels(buf *bytes.Buffer, bids, asks *PriceLevelSet) {
	for i := 0; i < c.depth; i++ {
		bid, hasBid := bids.At(i)
		ask, hasAsk := asks.At(i)
		if !hasBid && !hasAsk {
			break
		}
		if hasBid {
			writeLevel(buf, bid)
		}
		if hasAsk {
			writeLevel(buf, ask)
		}
	}

	if buf.Len() > 0 {
		buf.Truncate(buf.Len() - 1)
	}
}

func writeLevel(buf *bytes.Buffer, level PriceLevel) {
	AppendDecimal(buf, level.Price)
	buf.WriteByte(checksumSeparator)
	AppendDecimal(buf, level.Size)
	buf.WriteByte(checksumSeparator)
}

// BookChecksum is a convenience wrapper over the default codec.
func BookChecksum(ob *OrderBook) uint32 {
	return ob.Checksum(defaultChecksumCodec)
}

var defaultChecksumCodec = NewChecksumCodec(nil)
