package chart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSynthesize(t *testing.T) {
	price := decimal.RequireFromString("1.085")
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

	series := Synthesize("coinA", price, DefaultPoints, now)

	if len(series) != DefaultPoints {
		t.Fatalf("expected %d points, got %d", DefaultPoints, len(series))
	}

	// Last point is the live price on today's date.
	last := series[len(series)-1]
	if !last.Price.Equal(price) {
		t.Errorf("last point: got %s, want live price %s", last.Price, price)
	}
	if !last.Time.Equal(now.Truncate(24 * time.Hour)) {
		t.Errorf("last point date: got %s", last.Time)
	}

	// Points step one day at a time and stay within 1% of the live price.
	bound := price.Mul(decimal.New(1, -2))
	for i, pt := range series {
		if i > 0 {
			if got := pt.Time.Sub(series[i-1].Time); got != 24*time.Hour {
				t.Errorf("point %d: day step %s", i, got)
			}
		}
		if pt.Price.Sub(price).Abs().GreaterThan(bound) {
			t.Errorf("point %d: price %s outside 1%% of %s", i, pt.Price, price)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	price := decimal.NewFromInt(1)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	a := Synthesize("coinA", price, DefaultPoints, now)
	b := Synthesize("coinA", price, DefaultPoints, now)

	for i := range a {
		if !a[i].Price.Equal(b[i].Price) {
			t.Fatalf("point %d differs between runs: %s vs %s", i, a[i].Price, b[i].Price)
		}
	}

	other := Synthesize("coinB", price, DefaultPoints, now)
	same := true
	for i := range a[:len(a)-1] {
		if !a[i].Price.Equal(other[i].Price) {
			same = false
			break
		}
	}
	if same {
		t.Error("different stablecoins should derive different series")
	}
}

func TestSynthesize_Empty(t *testing.T) {
	if got := Synthesize("coinA", decimal.NewFromInt(1), 0, time.Now()); got != nil {
		t.Errorf("expected nil series for n=0, got %d points", len(got))
	}
}
