package solana

import "context"

// Client defines the Solana RPC HTTP interface consumed by the gateway.
type Client interface {
	// GetAccountInfo retrieves account info by public key.
	// Returns nil (not an error) if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetProgramAccounts retrieves all accounts owned by a program,
	// optionally filtered by data size.
	GetProgramAccounts(ctx context.Context, programID string, opts *ProgramAccountsOpts) ([]ProgramAccount, error)

	// GetTokenAccountBalance retrieves the balance of an SPL token account.
	GetTokenAccountBalance(ctx context.Context, account string) (*TokenBalance, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction building.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed, serialized transaction and returns
	// its signature. Ledger-side rejections surface as *RPCError.
	SendTransaction(ctx context.Context, signedTx []byte) (string, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// ProgramAccount pairs an account address with its decoded data.
type ProgramAccount struct {
	Pubkey  string
	Account AccountInfo
}

// ProgramAccountsOpts defines optional filters for getProgramAccounts.
type ProgramAccountsOpts struct {
	// DataSize filters accounts by exact data length when > 0.
	DataSize int
}

// TokenBalance is the parsed balance of an SPL token account.
type TokenBalance struct {
	Amount   uint64 // raw base units
	Decimals int
}
