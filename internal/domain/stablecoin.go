// Package domain defines the core data model shared by the gateway,
// cache and store layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollateralRatioScale is the divisor for basis-point collateral ratios.
// A ratio of 10200 means 102% collateral is required per minted unit.
const CollateralRatioScale = 10000

// Stablecoin is a single issued stablecoin record as read from the ledger.
// Address is assigned on creation and never changes. Price and ChartSeries
// are derived from the oracle on refresh; they are views, not ledger state.
type Stablecoin struct {
	Address         string          `json:"address"`
	Mint            string          `json:"mint"`
	Name            string          `json:"name"`
	Symbol          string          `json:"symbol"`
	TargetCurrency  string          `json:"target_currency"`
	Icon            string          `json:"icon,omitempty"`
	Description     string          `json:"description,omitempty"`
	TotalSupply     uint64          `json:"total_supply"`
	CollateralRatio uint64          `json:"collateral_ratio"` // basis points, e.g. 10200 = 102%
	StablebondMint  string          `json:"stablebond_mint"`
	PriceFeed       string          `json:"price_feed"`
	Vault           string          `json:"vault"`
	VaultAuthority  string          `json:"vault_authority"`
	Holders         int             `json:"holders"`
	Price           decimal.Decimal `json:"price"`
	ChartSeries     []ChartPoint    `json:"chart_series,omitempty"`
}

// ChartPoint is a single (timestamp, price) sample of the derived chart series.
type ChartPoint struct {
	Time  time.Time       `json:"time"`
	Price decimal.Decimal `json:"price"`
}

// RequiredCollateral returns the stablebond amount required to mint the given
// stablecoin amount at the given basis-point collateral ratio.
func RequiredCollateral(amount decimal.Decimal, ratio uint64) decimal.Decimal {
	return amount.Mul(decimal.NewFromUint64(ratio)).Div(decimal.NewFromInt(CollateralRatioScale))
}

// Clone returns a deep copy of the stablecoin, including the chart series.
func (s *Stablecoin) Clone() *Stablecoin {
	cp := *s
	if s.ChartSeries != nil {
		cp.ChartSeries = make([]ChartPoint, len(s.ChartSeries))
		copy(cp.ChartSeries, s.ChartSeries)
	}
	return &cp
}
