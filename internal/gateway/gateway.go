// Package gateway is the client's only window onto the remote systems: the
// stablecoin program on the ledger and the oracle price feeds. Everything
// behind this interface is opaque, possibly slow and possibly failing; the
// store never assumes partial application of a rejected command.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"stablefun/internal/domain"
)

// Gateway defines the remote operations consumed by the store.
type Gateway interface {
	// Owner returns the base58 public key of the connected wallet.
	Owner() string

	// FetchAll retrieves every stablecoin issued by the program, ordered by
	// address. Returns an empty slice (not an error) when none exist.
	FetchAll(ctx context.Context) ([]*domain.Stablecoin, error)

	// FetchOne retrieves a single stablecoin by address.
	// Returns ErrNotFound if the ledger does not know the address.
	FetchOne(ctx context.Context, address string) (*domain.Stablecoin, error)

	// FetchPrice returns the latest oracle price for a feed account.
	FetchPrice(ctx context.Context, feed string) (decimal.Decimal, error)

	// SubmitCreate submits an initialize command for a new stablecoin
	// backed by the given price feed.
	SubmitCreate(ctx context.Context, params domain.CreateParams, feed string) (*domain.Receipt, error)

	// SubmitMint submits a mint command: deposit collateral, receive tokens.
	// Amount is in token base units.
	SubmitMint(ctx context.Context, coin *domain.Stablecoin, amount uint64) (*domain.Receipt, error)

	// SubmitRedeem submits a redeem command: burn tokens, withdraw collateral.
	// Amount is in token base units.
	SubmitRedeem(ctx context.Context, coin *domain.Stablecoin, amount uint64) (*domain.Receipt, error)

	// GetOrCreateAssociatedAccount resolves the associated token account for
	// (owner, mint). Idempotent: an existing account is returned unchanged;
	// otherwise it is created as a side effect.
	GetOrCreateAssociatedAccount(ctx context.Context, owner, mint string) (string, error)

	// FetchTokenBalance reads the balance of a token account as a decimal
	// in display units.
	FetchTokenBalance(ctx context.Context, account string) (decimal.Decimal, error)
}
