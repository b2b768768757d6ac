// Package oracle reads reference prices from on-demand pull-feed accounts.
// Feeds are updated by an external oracle network; this client only decodes
// the latest committed result.
package oracle

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"stablefun/internal/solana"
)

// Feed layout constants. A pull-feed account stores the latest result as a
// scaled decimal: an i128 little-endian mantissa followed by a u32 scale,
// after the 8-byte account discriminator.
const (
	feedDiscriminatorLen = 8
	feedMantissaLen      = 16
	feedScaleLen         = 4
	feedMinLen           = feedDiscriminatorLen + feedMantissaLen + feedScaleLen
)

var (
	// ErrUnavailable is returned when the feed account cannot be fetched
	// or does not exist.
	ErrUnavailable = errors.New("oracle feed unavailable")

	// ErrDecode is returned when feed account data is malformed.
	ErrDecode = errors.New("malformed oracle feed data")
)

// PriceSource provides reference prices for oracle feed accounts.
type PriceSource interface {
	// FetchPrice returns the latest committed price of the feed.
	FetchPrice(ctx context.Context, feed string) (decimal.Decimal, error)
}

// FeedReader implements PriceSource over a Solana RPC client.
type FeedReader struct {
	rpc solana.Client
}

// NewFeedReader creates a FeedReader backed by the given RPC client.
func NewFeedReader(rpc solana.Client) *FeedReader {
	return &FeedReader{rpc: rpc}
}

// FetchPrice fetches and decodes the feed account's latest result.
func (r *FeedReader) FetchPrice(ctx context.Context, feed string) (decimal.Decimal, error) {
	info, err := r.rpc.GetAccountInfo(ctx, feed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: fetch feed %s: %v", ErrUnavailable, feed, err)
	}
	if info == nil {
		return decimal.Zero, fmt.Errorf("%w: feed account %s does not exist", ErrUnavailable, feed)
	}

	return DecodeResult(info.Data)
}

// DecodeResult decodes a feed account's latest result into a decimal.
func DecodeResult(data []byte) (decimal.Decimal, error) {
	if len(data) < feedMinLen {
		return decimal.Zero, fmt.Errorf("%w: %d bytes, need at least %d", ErrDecode, len(data), feedMinLen)
	}

	mantissa := decodeI128LE(data[feedDiscriminatorLen : feedDiscriminatorLen+feedMantissaLen])
	scale := binary.LittleEndian.Uint32(data[feedDiscriminatorLen+feedMantissaLen : feedMinLen])

	if scale > 38 {
		return decimal.Zero, fmt.Errorf("%w: scale %d out of range", ErrDecode, scale)
	}

	return decimal.NewFromBigInt(mantissa, -int32(scale)), nil
}

// decodeI128LE interprets 16 little-endian bytes as a signed 128-bit integer.
func decodeI128LE(b []byte) *big.Int {
	be := make([]byte, feedMantissaLen)
	for i, v := range b {
		be[feedMantissaLen-1-i] = v
	}

	v := new(big.Int).SetBytes(be)

	// Two's complement: high bit set means negative.
	if be[0]&0x80 != 0 {
		max := new(big.Int).Lsh(big.NewInt(1), 128)
		v.Sub(v, max)
	}

	return v
}

// Verify interface compliance at compile time.
var _ PriceSource = (*FeedReader)(nil)
