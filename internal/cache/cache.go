// Package cache holds the client-side view of remote ledger state. It is the
// single source the UI layer reads from; the store is the only writer.
package cache

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"stablefun/internal/domain"
	"stablefun/internal/observability"
)

// Cache is an in-memory entity cache with last-write-wins freshness. Each
// stablecoin carries the sequence number of the fetch that produced it; an
// upsert with a lower sequence than the cached one is discarded, so a slow
// response can never overwrite a newer snapshot.
type Cache struct {
	mu         sync.RWMutex
	coins      map[string]*domain.Stablecoin
	seqs       map[string]uint64
	replaceSeq uint64
	balances   map[string]decimal.Decimal
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		coins:    make(map[string]*domain.Stablecoin),
		seqs:     make(map[string]uint64),
		balances: make(map[string]decimal.Decimal),
	}
}

// Upsert replaces the cached record for coin.Address with a copy of coin.
// Replacement is whole-record; fields absent from coin are not preserved.
// Returns false when seq is older than the cached sequence and the record
// was left untouched.
func (c *Cache) Upsert(coin *domain.Stablecoin, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.seqs[coin.Address]; ok && seq < last {
		observability.RecordStaleDiscard()
		return false
	}

	c.coins[coin.Address] = coin.Clone()
	c.seqs[coin.Address] = seq
	observability.UpdateCachedStablecoins(len(c.coins))
	return true
}

// Replace swaps the stablecoin set in one step. Used by a full refresh so
// readers never observe a partially applied snapshot. Sequence numbers for
// the new records are all set to seq. Last-write-wins holds per entity
// across refresh kinds: a record already written with a higher sequence
// keeps its newer value, whether it appears in the snapshot or not. Returns
// false when a replacement with a higher sequence has already been applied.
func (c *Cache) Replace(coins []*domain.Stablecoin, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.replaceSeq {
		observability.RecordStaleDiscard()
		return false
	}

	next := make(map[string]*domain.Stablecoin, len(coins))
	seqs := make(map[string]uint64, len(coins))
	for _, coin := range coins {
		if last, ok := c.seqs[coin.Address]; ok && last > seq {
			next[coin.Address] = c.coins[coin.Address]
			seqs[coin.Address] = last
			observability.RecordStaleDiscard()
			continue
		}
		next[coin.Address] = coin.Clone()
		seqs[coin.Address] = seq
	}

	// Entities the snapshot predates (created or updated by a newer write)
	// survive the replacement.
	for addr, last := range c.seqs {
		if last <= seq {
			continue
		}
		if _, ok := next[addr]; !ok {
			next[addr] = c.coins[addr]
			seqs[addr] = last
		}
	}

	c.coins = next
	c.seqs = seqs
	c.replaceSeq = seq
	observability.UpdateCachedStablecoins(len(c.coins))
	return true
}

// Get returns a copy of the cached stablecoin, or false if absent.
func (c *Cache) Get(address string) (*domain.Stablecoin, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	coin, ok := c.coins[address]
	if !ok {
		return nil, false
	}
	return coin.Clone(), true
}

// Seq returns the sequence number of the cached record, or 0 if absent.
func (c *Cache) Seq(address string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seqs[address]
}

// All returns copies of every cached stablecoin, ordered by address.
func (c *Cache) All() []*domain.Stablecoin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	coins := make([]*domain.Stablecoin, 0, len(c.coins))
	for _, coin := range c.coins {
		coins = append(coins, coin.Clone())
	}
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Address < coins[j].Address
	})
	return coins
}

// BySymbol returns copies of cached stablecoins with the given symbol,
// ordered by address. Symbols are not unique on the ledger.
func (c *Cache) BySymbol(symbol string) []*domain.Stablecoin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var coins []*domain.Stablecoin
	for _, coin := range c.coins {
		if coin.Symbol == symbol {
			coins = append(coins, coin.Clone())
		}
	}
	sort.Slice(coins, func(i, j int) bool {
		return coins[i].Address < coins[j].Address
	})
	return coins
}

// Len returns the number of cached stablecoins.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.coins)
}

// SetUserBalance records the wallet's balance for a stablecoin mint.
func (c *Cache) SetUserBalance(mint string, balance decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[mint] = balance
}

// UserBalance returns the wallet's balance for a stablecoin mint. Unknown
// mints read as zero.
func (c *Cache) UserBalance(mint string) decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balances[mint]
}

// Reset drops all cached state.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coins = make(map[string]*domain.Stablecoin)
	c.seqs = make(map[string]uint64)
	c.balances = make(map[string]decimal.Decimal)
	c.replaceSeq = 0
	observability.UpdateCachedStablecoins(0)
}
