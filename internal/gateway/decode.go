package gateway

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"stablefun/internal/domain"
)

// stablecoinDiscriminator is the 8-byte anchor account discriminator that
// prefixes every StablecoinData account.
var stablecoinDiscriminator = accountDiscriminator("StablecoinData")

func accountDiscriminator(name string) []byte {
	h := sha256.Sum256([]byte("account:" + name))
	return h[:8]
}

// decodeStablecoin parses a StablecoinData account into the domain model.
// Layout: discriminator(8) | authority(32) | mint(32) | name | symbol |
// target_currency | icon | total_supply(u64) | collateral_ratio(u64) |
// stablebond_mint(32) | price_feed(32) | vault(32) | vault_authority(32),
// where strings are u32-length-prefixed.
func decodeStablecoin(address string, data []byte) (*domain.Stablecoin, error) {
	r := accountReader{data: data}

	disc, err := r.bytes(8)
	if err != nil {
		return nil, err
	}
	if string(disc) != string(stablecoinDiscriminator) {
		return nil, fmt.Errorf("%w: account %s is not a stablecoin record", ErrDecode, address)
	}

	coin := &domain.Stablecoin{Address: address}

	// Decoded but unused locally: the authority is enforced on-chain.
	if _, err := r.pubkey(); err != nil {
		return nil, err
	}

	if coin.Mint, err = r.pubkey(); err != nil {
		return nil, err
	}
	if coin.Name, err = r.string(); err != nil {
		return nil, err
	}
	if coin.Symbol, err = r.string(); err != nil {
		return nil, err
	}
	if coin.TargetCurrency, err = r.string(); err != nil {
		return nil, err
	}
	if coin.Icon, err = r.string(); err != nil {
		return nil, err
	}
	if coin.TotalSupply, err = r.u64(); err != nil {
		return nil, err
	}
	if coin.CollateralRatio, err = r.u64(); err != nil {
		return nil, err
	}
	if coin.StablebondMint, err = r.pubkey(); err != nil {
		return nil, err
	}
	if coin.PriceFeed, err = r.pubkey(); err != nil {
		return nil, err
	}
	if coin.Vault, err = r.pubkey(); err != nil {
		return nil, err
	}
	if coin.VaultAuthority, err = r.pubkey(); err != nil {
		return nil, err
	}

	return coin, nil
}

// IsStablecoinAccount reports whether account data carries the StablecoinData
// discriminator. Used to skip the program's other account types.
func IsStablecoinAccount(data []byte) bool {
	return len(data) >= 8 && string(data[:8]) == string(stablecoinDiscriminator)
}

// DecodeStablecoin parses a StablecoinData account into the domain model.
func DecodeStablecoin(address string, data []byte) (*domain.Stablecoin, error) {
	return decodeStablecoin(address, data)
}

// accountReader is a cursor over borsh-encoded account data.
type accountReader struct {
	data []byte
	pos  int
}

func (r *accountReader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrDecode, n, r.pos, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *accountReader) pubkey() (string, error) {
	b, err := r.bytes(32)
	if err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}

func (r *accountReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *accountReader) u64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *accountReader) string() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if n > 1<<16 {
		return "", fmt.Errorf("%w: string length %d out of range", ErrDecode, n)
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
