// Package store coordinates the cache against the remote gateway. It owns
// the synchronization discipline: commands are validated locally, submitted
// through the gateway, and on acceptance the affected entity is refetched
// before the cache changes. The cache is never written optimistically.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stablefun/internal/cache"
	"stablefun/internal/chart"
	"stablefun/internal/domain"
	"stablefun/internal/gateway"
	"stablefun/internal/observability"
	"stablefun/internal/solana"
)

// Field limits enforced before a create command leaves the client. The
// on-chain program enforces the same limits; rejecting locally saves a
// round trip that is certain to fail.
const (
	NameMaxLen   = 32
	SymbolMaxLen = 8
)

// DefaultTokenDecimals is the decimal count of mints issued by the program.
const DefaultTokenDecimals = 6

// ValidationError is a command rejected locally before any network traffic.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var (
	ErrNameRequired        = &ValidationError{Field: "name", Reason: "must not be empty"}
	ErrNameTooLong         = &ValidationError{Field: "name", Reason: "exceeds 32 characters"}
	ErrSymbolRequired      = &ValidationError{Field: "symbol", Reason: "must not be empty"}
	ErrSymbolTooLong       = &ValidationError{Field: "symbol", Reason: "exceeds 8 characters"}
	ErrUnsupportedCurrency = &ValidationError{Field: "currency", Reason: "no price feed configured"}
	ErrInvalidAmount       = &ValidationError{Field: "amount", Reason: "must be a positive token amount"}

	// ErrUnknownEntity is returned for commands against an address the
	// cache has never seen.
	ErrUnknownEntity = errors.New("unknown stablecoin")
)

// Store is the synchronizing facade over the gateway and the cache.
type Store struct {
	gw       gateway.Gateway
	cache    *cache.Cache
	logger   *zap.Logger
	feeds    map[string]string
	decimals int32
	points   int
	now      func() time.Time

	seq     atomic.Uint64
	loading atomic.Bool

	mu      sync.Mutex
	lastErr error
	locks   map[string]*sync.Mutex
}

// Options configures a Store.
type Options struct {
	Gateway gateway.Gateway
	Cache   *cache.Cache
	Logger  *zap.Logger

	// Feeds maps supported target currencies to oracle feed addresses.
	Feeds map[string]string

	// TokenDecimals overrides DefaultTokenDecimals.
	TokenDecimals int32

	// ChartPoints overrides chart.DefaultPoints.
	ChartPoints int

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates a Store.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	decimals := opts.TokenDecimals
	if decimals == 0 {
		decimals = DefaultTokenDecimals
	}
	points := opts.ChartPoints
	if points == 0 {
		points = chart.DefaultPoints
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		gw:       opts.Gateway,
		cache:    opts.Cache,
		logger:   logger.Named("store"),
		feeds:    opts.Feeds,
		decimals: decimals,
		points:   points,
		now:      now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Loading reports whether a full refresh is in flight.
func (s *Store) Loading() bool { return s.loading.Load() }

// Err returns the error of the most recent full refresh, nil on success.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Owner returns the connected wallet's public key.
func (s *Store) Owner() string { return s.gw.Owner() }

// Stablecoins returns the cached stablecoin set, ordered by address.
func (s *Store) Stablecoins() []*domain.Stablecoin { return s.cache.All() }

// Stablecoin returns a cached stablecoin by address.
func (s *Store) Stablecoin(address string) (*domain.Stablecoin, bool) {
	return s.cache.Get(address)
}

// UserBalance returns the wallet's cached balance for a mint. Unknown mints
// read as zero.
func (s *Store) UserBalance(mint string) decimal.Decimal {
	return s.cache.UserBalance(mint)
}

// SupportedCurrencies lists the target currencies with a configured feed.
func (s *Store) SupportedCurrencies() []string {
	out := make([]string, 0, len(s.feeds))
	for c := range s.feeds {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RefreshAll rebuilds the cache from the ledger. The fetched set is fully
// assembled, prices and charts included, before the cache is touched; on any
// failure the cache keeps its previous contents unchanged.
func (s *Store) RefreshAll(ctx context.Context) error {
	start := s.now()
	seq := s.seq.Add(1)

	s.loading.Store(true)
	defer s.loading.Store(false)

	err := s.refreshAll(ctx, seq)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	status := "ok"
	if err != nil {
		status = "error"
		s.logger.Error("full refresh failed", zap.Error(err))
	} else {
		observability.DefaultMetrics.LastSuccessfulRefresh.SetToCurrentTime()
	}
	observability.RecordRefresh(status, s.now().Sub(start).Seconds())

	return err
}

func (s *Store) refreshAll(ctx context.Context, seq uint64) error {
	coins, err := s.gw.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch stablecoins: %w", err)
	}

	for _, coin := range coins {
		if err := s.enrich(ctx, coin); err != nil {
			return err
		}
	}

	s.cache.Replace(coins, seq)
	s.logger.Info("cache refreshed", zap.Int("stablecoins", len(coins)))
	return nil
}

// RefreshOne refetches a single stablecoin and upserts it. The sequence
// number is taken before the fetch, so a response delayed past a newer
// refresh of the same entity is discarded instead of applied.
func (s *Store) RefreshOne(ctx context.Context, address string) (*domain.Stablecoin, error) {
	seq := s.seq.Add(1)

	coin, err := s.gw.FetchOne(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := s.enrich(ctx, coin); err != nil {
		return nil, err
	}

	s.cache.Upsert(coin, seq)
	return coin, nil
}

// enrich attaches the live oracle price and the derived chart series.
func (s *Store) enrich(ctx context.Context, coin *domain.Stablecoin) error {
	price, err := s.gw.FetchPrice(ctx, coin.PriceFeed)
	if err != nil {
		return fmt.Errorf("fetch price for %s: %w", coin.Symbol, err)
	}
	coin.Price = price
	coin.ChartSeries = chart.Synthesize(coin.Address, price, s.points, s.now())
	return nil
}

// RefreshUserBalance refetches the wallet's balance for a mint. A failure
// here is isolated: it is logged and returned, but cached entity state is
// untouched.
func (s *Store) RefreshUserBalance(ctx context.Context, mint string) error {
	account, err := s.gw.GetOrCreateAssociatedAccount(ctx, s.gw.Owner(), mint)
	if err != nil {
		s.logger.Warn("balance refresh failed", zap.String("mint", mint), zap.Error(err))
		return err
	}

	balance, err := s.gw.FetchTokenBalance(ctx, account)
	if err != nil {
		s.logger.Warn("balance refresh failed", zap.String("mint", mint), zap.Error(err))
		return err
	}

	s.cache.SetUserBalance(mint, balance)
	return nil
}

// Create validates and submits a new stablecoin. On acceptance the new
// record is fetched back and cached; the receipt carries the assigned
// addresses either way.
func (s *Store) Create(ctx context.Context, params domain.CreateParams) (*domain.Receipt, error) {
	start := s.now()

	feed, err := s.validateCreate(params)
	if err != nil {
		observability.RecordCommand("create", "invalid", s.now().Sub(start).Seconds())
		return nil, err
	}

	receipt, err := s.gw.SubmitCreate(ctx, params, feed)
	if err != nil {
		observability.RecordCommand("create", commandStatus(err), s.now().Sub(start).Seconds())
		return nil, err
	}

	// Refetch the whole set rather than trusting the locally generated
	// addresses as final state.
	if err := s.RefreshAll(ctx); err != nil {
		// The command landed; the record will appear on the next refresh.
		s.logger.Warn("post-create refresh failed",
			zap.String("address", receipt.StablecoinAddress), zap.Error(err))
	}

	observability.RecordCommand("create", "ok", s.now().Sub(start).Seconds())
	return receipt, nil
}

func (s *Store) validateCreate(params domain.CreateParams) (string, error) {
	if params.Name == "" {
		return "", ErrNameRequired
	}
	if len(params.Name) > NameMaxLen {
		return "", ErrNameTooLong
	}
	if params.Symbol == "" {
		return "", ErrSymbolRequired
	}
	if len(params.Symbol) > SymbolMaxLen {
		return "", ErrSymbolTooLong
	}
	feed, ok := s.feeds[params.Currency]
	if !ok {
		return "", ErrUnsupportedCurrency
	}
	return feed, nil
}

// Mint validates and submits a mint command for a cached stablecoin, then
// refetches the record and the wallet balance.
func (s *Store) Mint(ctx context.Context, address string, amount decimal.Decimal) (*domain.Receipt, error) {
	return s.supplyCommand(ctx, "mint", address, amount, s.gw.SubmitMint)
}

// Redeem validates and submits a redeem command for a cached stablecoin,
// then refetches the record and the wallet balance.
func (s *Store) Redeem(ctx context.Context, address string, amount decimal.Decimal) (*domain.Receipt, error) {
	return s.supplyCommand(ctx, "redeem", address, amount, s.gw.SubmitRedeem)
}

func (s *Store) supplyCommand(ctx context.Context, kind, address string, amount decimal.Decimal,
	submit func(context.Context, *domain.Stablecoin, uint64) (*domain.Receipt, error)) (*domain.Receipt, error) {

	start := s.now()

	base, err := s.toBaseUnits(amount)
	if err != nil {
		observability.RecordCommand(kind, "invalid", s.now().Sub(start).Seconds())
		return nil, err
	}

	coin, ok := s.cache.Get(address)
	if !ok {
		observability.RecordCommand(kind, "invalid", s.now().Sub(start).Seconds())
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, address)
	}

	// One in-flight command per entity; concurrent commands against the
	// same stablecoin serialize here.
	lock := s.entityLock(address)
	lock.Lock()
	defer lock.Unlock()

	receipt, err := submit(ctx, coin, base)
	if err != nil {
		observability.RecordCommand(kind, commandStatus(err), s.now().Sub(start).Seconds())
		return nil, err
	}

	if err := s.RefreshAll(ctx); err != nil {
		s.logger.Warn("post-command refresh failed",
			zap.String("kind", kind), zap.String("address", address), zap.Error(err))
	}
	// Balance refresh failures are isolated; RefreshUserBalance logs them.
	_ = s.RefreshUserBalance(ctx, coin.Mint)

	observability.RecordCommand(kind, "ok", s.now().Sub(start).Seconds())
	return receipt, nil
}

// toBaseUnits converts a display amount to token base units. The amount must
// be positive and representable without sub-unit dust.
func (s *Store) toBaseUnits(amount decimal.Decimal) (uint64, error) {
	if amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	base := amount.Shift(s.decimals)
	if !base.Equal(base.Truncate(0)) {
		return 0, &ValidationError{Field: "amount", Reason: "more precision than the token supports"}
	}
	bi := base.BigInt()
	if !bi.IsUint64() {
		return 0, &ValidationError{Field: "amount", Reason: "exceeds maximum token amount"}
	}
	return bi.Uint64(), nil
}

// ApplyAccountUpdate folds a pushed program account notification into the
// cache under the same freshness discipline as a fetch.
func (s *Store) ApplyAccountUpdate(ctx context.Context, update solana.AccountUpdate) {
	if !gateway.IsStablecoinAccount(update.Account.Data) {
		return
	}

	seq := s.seq.Add(1)
	observability.RecordAccountNotification()

	coin, err := gateway.DecodeStablecoin(update.Pubkey, update.Account.Data)
	if err != nil {
		s.logger.Warn("dropped malformed account notification",
			zap.String("pubkey", update.Pubkey), zap.Error(err))
		return
	}

	if err := s.enrich(ctx, coin); err != nil {
		// Keep the pushed ledger fields; reuse the last known price.
		if cached, ok := s.cache.Get(update.Pubkey); ok {
			coin.Price = cached.Price
			coin.ChartSeries = cached.ChartSeries
		}
		s.logger.Warn("price enrichment failed for pushed update",
			zap.String("pubkey", update.Pubkey), zap.Error(err))
	}

	if s.cache.Upsert(coin, seq) {
		s.logger.Debug("applied account notification",
			zap.String("pubkey", update.Pubkey), zap.Int64("slot", update.Slot))
	}
}

func (s *Store) entityLock(address string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[address]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[address] = lock
	}
	return lock
}

// commandStatus labels a gateway failure for metrics.
func commandStatus(err error) string {
	var lerr *gateway.LedgerError
	if errors.As(err, &lerr) {
		return "rejected"
	}
	return "transport"
}
