// Package chart synthesizes price history for the stablecoin detail view.
// The ledger keeps no historical prices, so the series is derived from the
// current oracle price: one sample per day ending today, each within one
// percent of the live price. Derivation is deterministic per stablecoin so
// repeated renders of the same view agree.
package chart

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/shopspring/decimal"

	"stablefun/internal/domain"
)

// DefaultPoints is the series length used by the detail view.
const DefaultPoints = 7

// jitterScale bounds each sample to ±1% of the live price.
var jitterScale = decimal.New(1, -2)

// Synthesize derives an n-point daily series ending at now. The last point
// is the live price itself.
func Synthesize(address string, price decimal.Decimal, n int, now time.Time) []domain.ChartPoint {
	if n <= 0 {
		return nil
	}

	day := now.Truncate(24 * time.Hour)
	series := make([]domain.ChartPoint, n)

	for i := 0; i < n; i++ {
		offset := n - 1 - i
		ts := day.AddDate(0, 0, -offset)

		p := price
		if offset != 0 {
			p = price.Add(price.Mul(jitter(address, offset)))
		}

		series[i] = domain.ChartPoint{Time: ts, Price: p}
	}

	return series
}

// jitter returns a deterministic factor in (-0.01, 0.01) for the given
// stablecoin and day offset.
func jitter(address string, offset int) decimal.Decimal {
	h := sha256.New()
	h.Write([]byte(address))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(offset))
	h.Write(buf[:])
	sum := h.Sum(nil)

	// Map 8 hash bytes onto [-9999, 9999] ten-thousandths.
	v := int64(binary.LittleEndian.Uint64(sum[:8]) % 19999)
	v -= 9999

	return decimal.New(v, -4).Mul(jitterScale)
}
