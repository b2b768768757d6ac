package gateway

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
)

func testPubkey(fill byte) string {
	return base58.Encode(bytes.Repeat([]byte{fill}, 32))
}

// encodeStablecoin builds account data matching the on-chain record layout.
func encodeStablecoin(name, symbol, currency, icon string, supply, ratio uint64) []byte {
	buf := append([]byte{}, stablecoinDiscriminator...)

	appendPubkey := func(fill byte) {
		buf = append(buf, bytes.Repeat([]byte{fill}, 32)...)
	}
	appendString := func(s string) {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	appendPubkey(1) // authority
	appendPubkey(2) // mint
	appendString(name)
	appendString(symbol)
	appendString(currency)
	appendString(icon)
	buf = binary.LittleEndian.AppendUint64(buf, supply)
	buf = binary.LittleEndian.AppendUint64(buf, ratio)
	appendPubkey(3) // stablebond mint
	appendPubkey(4) // price feed
	appendPubkey(5) // vault
	appendPubkey(6) // vault authority
	return buf
}

func TestDecodeStablecoin(t *testing.T) {
	data := encodeStablecoin("Mexican Peso Coin", "MXNC", "MXN", "https://example.com/mxnc.png", 1000000000, 10200)

	coin, err := DecodeStablecoin(testPubkey(9), data)
	if err != nil {
		t.Fatalf("DecodeStablecoin: %v", err)
	}

	if coin.Address != testPubkey(9) {
		t.Errorf("address: got %s", coin.Address)
	}
	if coin.Mint != testPubkey(2) {
		t.Errorf("mint: got %s, want %s", coin.Mint, testPubkey(2))
	}
	if coin.Name != "Mexican Peso Coin" || coin.Symbol != "MXNC" {
		t.Errorf("name/symbol: got %q/%q", coin.Name, coin.Symbol)
	}
	if coin.TargetCurrency != "MXN" {
		t.Errorf("currency: got %q", coin.TargetCurrency)
	}
	if coin.TotalSupply != 1000000000 {
		t.Errorf("supply: got %d", coin.TotalSupply)
	}
	if coin.CollateralRatio != 10200 {
		t.Errorf("collateral ratio: got %d", coin.CollateralRatio)
	}
	if coin.StablebondMint != testPubkey(3) || coin.PriceFeed != testPubkey(4) {
		t.Errorf("stablebond/feed: got %s/%s", coin.StablebondMint, coin.PriceFeed)
	}
	if coin.Vault != testPubkey(5) || coin.VaultAuthority != testPubkey(6) {
		t.Errorf("vault/authority: got %s/%s", coin.Vault, coin.VaultAuthority)
	}
}

func TestDecodeStablecoin_Malformed(t *testing.T) {
	full := encodeStablecoin("Euro Coin", "EURC", "EUR", "", 0, 10200)

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short discriminator", full[:4]},
		{"truncated body", full[:len(full)-10]},
		{"wrong discriminator", append(bytes.Repeat([]byte{0xff}, 8), full[8:]...)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeStablecoin(testPubkey(9), tc.data); !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestIsStablecoinAccount(t *testing.T) {
	data := encodeStablecoin("USD Coin", "USDC", "USD", "", 0, 10200)
	if !IsStablecoinAccount(data) {
		t.Error("expected stablecoin data to match discriminator")
	}
	if IsStablecoinAccount(bytes.Repeat([]byte{0}, 64)) {
		t.Error("zeroed data should not match discriminator")
	}
	if IsStablecoinAccount(nil) {
		t.Error("nil data should not match discriminator")
	}
}
