// Package stub provides an in-memory Gateway for tests. It mimics the
// remote program closely enough for store-level behavior: submitted commands
// mutate the stub's ledger view, and reads return copies of that view.
package stub

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"stablefun/internal/domain"
	"stablefun/internal/gateway"
)

// Gateway is an in-memory gateway.Gateway. Every method bumps a per-method
// call counter so tests can assert exactly which remote operations ran.
type Gateway struct {
	mu sync.Mutex

	OwnerKey string

	// Coins is the simulated ledger state, keyed by stablecoin address.
	Coins map[string]*domain.Stablecoin

	// Prices maps feed address to the current oracle price.
	Prices map[string]decimal.Decimal

	// Balances maps token account address to a display-unit balance.
	Balances map[string]decimal.Decimal

	// ATAs maps "owner:mint" to the resolved associated account.
	ATAs map[string]string

	// Calls counts invocations per method name.
	Calls map[string]int

	// Errors set per-method forced failures, keyed by method name.
	Errors map[string]error

	seq int
}

// New creates an empty stub gateway.
func New(owner string) *Gateway {
	return &Gateway{
		OwnerKey: owner,
		Coins:    make(map[string]*domain.Stablecoin),
		Prices:   make(map[string]decimal.Decimal),
		Balances: make(map[string]decimal.Decimal),
		ATAs:     make(map[string]string),
		Calls:    make(map[string]int),
		Errors:   make(map[string]error),
	}
}

// AddStablecoin seeds a stablecoin into the simulated ledger.
func (g *Gateway) AddStablecoin(coin *domain.Stablecoin) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Coins[coin.Address] = coin.Clone()
}

// SetPrice seeds an oracle price for a feed.
func (g *Gateway) SetPrice(feed string, price decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prices[feed] = price
}

// SetBalance seeds a token account balance.
func (g *Gateway) SetBalance(account string, balance decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Balances[account] = balance
}

// Fail forces the named method to return err until cleared with a nil err.
func (g *Gateway) Fail(method string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.Errors, method)
		return
	}
	g.Errors[method] = err
}

// CallCount returns how many times the named method ran.
func (g *Gateway) CallCount(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Calls[method]
}

// TotalCalls returns the total number of gateway invocations.
func (g *Gateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.Calls {
		total += n
	}
	return total
}

func (g *Gateway) enter(method string) error {
	g.Calls[method]++
	return g.Errors[method]
}

func (g *Gateway) Owner() string { return g.OwnerKey }

func (g *Gateway) FetchAll(context.Context) ([]*domain.Stablecoin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("fetchAll"); err != nil {
		return nil, err
	}

	coins := make([]*domain.Stablecoin, 0, len(g.Coins))
	for _, coin := range g.Coins {
		coins = append(coins, coin.Clone())
	}
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Address < coins[j].Address
	})
	return coins, nil
}

func (g *Gateway) FetchOne(_ context.Context, address string) (*domain.Stablecoin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("fetchOne"); err != nil {
		return nil, err
	}

	coin, ok := g.Coins[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gateway.ErrNotFound, address)
	}
	return coin.Clone(), nil
}

func (g *Gateway) FetchPrice(_ context.Context, feed string) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("fetchPrice"); err != nil {
		return decimal.Zero, err
	}

	price, ok := g.Prices[feed]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for feed %s", feed)
	}
	return price, nil
}

func (g *Gateway) SubmitCreate(_ context.Context, params domain.CreateParams, feed string) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("submitCreate"); err != nil {
		return nil, err
	}

	g.seq++
	address := fmt.Sprintf("stub-coin-%d", g.seq)
	mint := fmt.Sprintf("stub-mint-%d", g.seq)
	vault := fmt.Sprintf("stub-vault-%d", g.seq)

	g.Coins[address] = &domain.Stablecoin{
		Address:         address,
		Mint:            mint,
		Name:            params.Name,
		Symbol:          params.Symbol,
		TargetCurrency:  params.Currency,
		Icon:            params.Icon,
		Description:     params.Description,
		CollateralRatio: 10200,
		PriceFeed:       feed,
		Vault:           vault,
	}

	return &domain.Receipt{
		Signature:         fmt.Sprintf("stub-sig-%d", g.seq),
		StablecoinAddress: address,
		MintAddress:       mint,
		VaultAddress:      vault,
	}, nil
}

func (g *Gateway) SubmitMint(_ context.Context, coin *domain.Stablecoin, amount uint64) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("submitMint"); err != nil {
		return nil, err
	}

	ledger, ok := g.Coins[coin.Address]
	if !ok {
		return nil, &gateway.LedgerError{Code: -32002, Reason: "unknown stablecoin account"}
	}
	ledger.TotalSupply += amount

	g.seq++
	return &domain.Receipt{Signature: fmt.Sprintf("stub-sig-%d", g.seq)}, nil
}

func (g *Gateway) SubmitRedeem(_ context.Context, coin *domain.Stablecoin, amount uint64) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("submitRedeem"); err != nil {
		return nil, err
	}

	ledger, ok := g.Coins[coin.Address]
	if !ok {
		return nil, &gateway.LedgerError{Code: -32002, Reason: "unknown stablecoin account"}
	}
	if ledger.TotalSupply < amount {
		return nil, &gateway.LedgerError{Code: -32002, Reason: "insufficient supply"}
	}
	ledger.TotalSupply -= amount

	g.seq++
	return &domain.Receipt{Signature: fmt.Sprintf("stub-sig-%d", g.seq)}, nil
}

func (g *Gateway) GetOrCreateAssociatedAccount(_ context.Context, owner, mint string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("getOrCreateAssociatedAccount"); err != nil {
		return "", err
	}

	key := owner + ":" + mint
	if ata, ok := g.ATAs[key]; ok {
		return ata, nil
	}
	g.seq++
	ata := fmt.Sprintf("stub-ata-%d", g.seq)
	g.ATAs[key] = ata
	return ata, nil
}

func (g *Gateway) FetchTokenBalance(_ context.Context, account string) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("fetchTokenBalance"); err != nil {
		return decimal.Zero, err
	}
	return g.Balances[account], nil
}

var _ gateway.Gateway = (*Gateway)(nil)
