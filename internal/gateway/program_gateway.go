package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stablefun/internal/domain"
	"stablefun/internal/observability"
	"stablefun/internal/oracle"
	"stablefun/internal/solana"
	"stablefun/internal/wallet"
)

// PDA seed prefixes used by the stablecoin program.
const (
	mintAuthoritySeed  = "mint-authority"
	vaultAuthoritySeed = "vault-authority"
)

// ProgramGateway implements Gateway against the on-chain stablecoin program.
type ProgramGateway struct {
	rpc            solana.Client
	prices         oracle.PriceSource
	signer         solana.Signer
	programID      string
	stablebondMint string
	logger         *zap.Logger

	// newSigner generates ephemeral account keypairs for create commands.
	newSigner func() (*wallet.Keypair, error)
}

// Options configures a ProgramGateway.
type Options struct {
	RPC            solana.Client
	Prices         oracle.PriceSource
	Signer         solana.Signer
	ProgramID      string
	StablebondMint string
	Logger         *zap.Logger
}

// New creates a ProgramGateway.
func New(opts Options) *ProgramGateway {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramGateway{
		rpc:            opts.RPC,
		prices:         opts.Prices,
		signer:         opts.Signer,
		programID:      opts.ProgramID,
		stablebondMint: opts.StablebondMint,
		logger:         logger.Named("gateway"),
		newSigner:      wallet.NewEphemeral,
	}
}

// Owner returns the wallet public key commands are signed with.
func (g *ProgramGateway) Owner() string {
	return g.signer.Pubkey()
}

// FetchAll retrieves and decodes every stablecoin record owned by the program.
func (g *ProgramGateway) FetchAll(ctx context.Context) ([]*domain.Stablecoin, error) {
	defer g.observe("fetchAll", time.Now())

	accounts, err := g.rpc.GetProgramAccounts(ctx, g.programID, nil)
	if err != nil {
		return nil, &TransportError{Op: "fetchAll", Err: err}
	}

	coins := make([]*domain.Stablecoin, 0, len(accounts))
	for _, acc := range accounts {
		// The program also owns non-record accounts; skip them.
		if !IsStablecoinAccount(acc.Account.Data) {
			continue
		}
		coin, err := decodeStablecoin(acc.Pubkey, acc.Account.Data)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}

	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Address < coins[j].Address
	})

	return coins, nil
}

// FetchOne retrieves and decodes a single stablecoin record.
func (g *ProgramGateway) FetchOne(ctx context.Context, address string) (*domain.Stablecoin, error) {
	defer g.observe("fetchOne", time.Now())

	info, err := g.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, &TransportError{Op: "fetchOne", Err: err}
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
	}

	return decodeStablecoin(address, info.Data)
}

// FetchPrice returns the latest oracle price for a feed account.
func (g *ProgramGateway) FetchPrice(ctx context.Context, feed string) (decimal.Decimal, error) {
	defer g.observe("fetchPrice", time.Now())
	return g.prices.FetchPrice(ctx, feed)
}

// SubmitCreate submits an initialize_stablecoin command. The stablecoin
// record, token mint and collateral vault accounts are fresh keypairs that
// co-sign the transaction.
func (g *ProgramGateway) SubmitCreate(ctx context.Context, params domain.CreateParams, feed string) (*domain.Receipt, error) {
	defer g.observe("submitCreate", time.Now())

	stablecoinKP, err := g.newSigner()
	if err != nil {
		return nil, fmt.Errorf("generate stablecoin keypair: %w", err)
	}
	mintKP, err := g.newSigner()
	if err != nil {
		return nil, fmt.Errorf("generate mint keypair: %w", err)
	}
	vaultKP, err := g.newSigner()
	if err != nil {
		return nil, fmt.Errorf("generate vault keypair: %w", err)
	}

	stablecoinRaw, err := solana.DecodePubkey(stablecoinKP.Pubkey())
	if err != nil {
		return nil, err
	}

	mintAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(mintAuthoritySeed), stablecoinRaw}, g.programID)
	if err != nil {
		return nil, fmt.Errorf("derive mint authority: %w", err)
	}
	vaultAuthority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(vaultAuthoritySeed), stablecoinRaw}, g.programID)
	if err != nil {
		return nil, fmt.Errorf("derive vault authority: %w", err)
	}

	data := instructionDiscriminator("initialize_stablecoin")
	data = appendBorshString(data, params.Name)
	data = appendBorshString(data, params.Symbol)
	data = appendBorshString(data, params.Currency)
	data = appendBorshString(data, params.Icon)

	ix := solana.Instruction{
		ProgramID: g.programID,
		Accounts: []solana.AccountMeta{
			{Pubkey: g.signer.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: stablecoinKP.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: mintKP.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: g.stablebondMint},
			{Pubkey: feed},
			{Pubkey: vaultKP.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: vaultAuthority},
			{Pubkey: mintAuthority},
			{Pubkey: solana.SystemProgramID},
			{Pubkey: solana.TokenProgramID},
			{Pubkey: solana.SysvarRentID},
		},
		Data: data,
	}

	sig, err := g.submit(ctx, []solana.Instruction{ix},
		[]solana.Signer{g.signer, stablecoinKP, mintKP, vaultKP})
	if err != nil {
		return nil, err
	}

	g.logger.Info("stablecoin created",
		zap.String("address", stablecoinKP.Pubkey()),
		zap.String("symbol", params.Symbol),
		zap.String("signature", sig))

	return &domain.Receipt{
		Signature:         sig,
		StablecoinAddress: stablecoinKP.Pubkey(),
		MintAddress:       mintKP.Pubkey(),
		VaultAddress:      vaultKP.Pubkey(),
	}, nil
}

// SubmitMint submits a mint_stablecoin command.
func (g *ProgramGateway) SubmitMint(ctx context.Context, coin *domain.Stablecoin, amount uint64) (*domain.Receipt, error) {
	defer g.observe("submitMint", time.Now())
	return g.submitSupplyChange(ctx, coin, amount, true)
}

// SubmitRedeem submits a redeem_stablecoin command.
func (g *ProgramGateway) SubmitRedeem(ctx context.Context, coin *domain.Stablecoin, amount uint64) (*domain.Receipt, error) {
	defer g.observe("submitRedeem", time.Now())
	return g.submitSupplyChange(ctx, coin, amount, false)
}

// submitSupplyChange builds and submits a mint or redeem instruction. Both
// touch the same accounts; redeem releases collateral via the vault authority
// while mint issues tokens via the mint authority.
func (g *ProgramGateway) submitSupplyChange(ctx context.Context, coin *domain.Stablecoin, amount uint64, mint bool) (*domain.Receipt, error) {
	owner := g.signer.Pubkey()

	userStablecoin, err := g.GetOrCreateAssociatedAccount(ctx, owner, coin.Mint)
	if err != nil {
		return nil, err
	}
	userStablebond, err := g.GetOrCreateAssociatedAccount(ctx, owner, coin.StablebondMint)
	if err != nil {
		return nil, err
	}

	var data []byte
	accounts := []solana.AccountMeta{
		{Pubkey: owner, IsSigner: true, IsWritable: true},
		{Pubkey: coin.Address, IsWritable: true},
		{Pubkey: coin.Mint, IsWritable: true},
		{Pubkey: userStablecoin, IsWritable: true},
		{Pubkey: userStablebond, IsWritable: true},
		{Pubkey: coin.Vault, IsWritable: true},
	}

	if mint {
		stablecoinRaw, err := solana.DecodePubkey(coin.Address)
		if err != nil {
			return nil, err
		}
		mintAuthority, _, err := solana.FindProgramAddress(
			[][]byte{[]byte(mintAuthoritySeed), stablecoinRaw}, g.programID)
		if err != nil {
			return nil, fmt.Errorf("derive mint authority: %w", err)
		}
		data = instructionDiscriminator("mint_stablecoin")
		accounts = append(accounts,
			solana.AccountMeta{Pubkey: coin.PriceFeed},
			solana.AccountMeta{Pubkey: mintAuthority},
		)
	} else {
		data = instructionDiscriminator("redeem_stablecoin")
		accounts = append(accounts,
			solana.AccountMeta{Pubkey: coin.VaultAuthority},
			solana.AccountMeta{Pubkey: coin.PriceFeed},
		)
	}

	data = binary.LittleEndian.AppendUint64(data, amount)
	accounts = append(accounts, solana.AccountMeta{Pubkey: solana.TokenProgramID})

	ix := solana.Instruction{
		ProgramID: g.programID,
		Accounts:  accounts,
		Data:      data,
	}

	sig, err := g.submit(ctx, []solana.Instruction{ix}, []solana.Signer{g.signer})
	if err != nil {
		return nil, err
	}

	return &domain.Receipt{Signature: sig}, nil
}

// GetOrCreateAssociatedAccount resolves the ATA for (owner, mint), creating
// it on first use. Idempotent.
func (g *ProgramGateway) GetOrCreateAssociatedAccount(ctx context.Context, owner, mint string) (string, error) {
	defer g.observe("getOrCreateAssociatedAccount", time.Now())

	ata, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return "", fmt.Errorf("derive associated account: %w", err)
	}

	info, err := g.rpc.GetAccountInfo(ctx, ata)
	if err != nil {
		return "", &TransportError{Op: "getOrCreateAssociatedAccount", Err: err}
	}
	if info != nil {
		return ata, nil
	}

	ix := solana.Instruction{
		ProgramID: solana.AssociatedTokenProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: g.signer.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: ata, IsWritable: true},
			{Pubkey: owner},
			{Pubkey: mint},
			{Pubkey: solana.SystemProgramID},
			{Pubkey: solana.TokenProgramID},
		},
	}

	if _, err := g.submit(ctx, []solana.Instruction{ix}, []solana.Signer{g.signer}); err != nil {
		return "", err
	}

	g.logger.Debug("associated account created",
		zap.String("owner", owner),
		zap.String("mint", mint),
		zap.String("account", ata))

	return ata, nil
}

// FetchTokenBalance reads a token account balance in display units.
func (g *ProgramGateway) FetchTokenBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	defer g.observe("fetchTokenBalance", time.Now())

	bal, err := g.rpc.GetTokenAccountBalance(ctx, account)
	if err != nil {
		return decimal.Zero, &TransportError{Op: "fetchTokenBalance", Err: err}
	}

	return decimal.NewFromUint64(bal.Amount).Shift(-int32(bal.Decimals)), nil
}

// submit builds, signs and sends a transaction.
func (g *ProgramGateway) submit(ctx context.Context, ixs []solana.Instruction, signers []solana.Signer) (string, error) {
	blockhash, err := g.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", &TransportError{Op: "getLatestBlockhash", Err: err}
	}

	tx, _, err := solana.BuildTransaction(ixs, blockhash, signers)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	sig, err := g.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", classifyRPCError("sendTransaction", err)
	}

	return sig, nil
}

func (g *ProgramGateway) observe(method string, start time.Time) {
	observability.RecordGatewayCall(method, time.Since(start).Seconds())
}

// instructionDiscriminator returns the anchor method discriminator:
// sha256("global:<name>")[:8].
func instructionDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("global:" + name))
	out := make([]byte, 8, 64)
	copy(out, h[:8])
	return out
}

// appendBorshString appends a u32-length-prefixed string.
func appendBorshString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// Verify interface compliance at compile time.
var _ Gateway = (*ProgramGateway)(nil)
