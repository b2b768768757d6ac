package oracle

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"stablefun/internal/solana"
)

// encodeFeed builds feed account data for a mantissa/scale pair.
func encodeFeed(mantissa *big.Int, scale uint32) []byte {
	data := make([]byte, feedMinLen)

	v := new(big.Int).Set(mantissa)
	if v.Sign() < 0 {
		max := new(big.Int).Lsh(big.NewInt(1), 128)
		v.Add(v, max)
	}

	be := v.FillBytes(make([]byte, feedMantissaLen))
	for i := 0; i < feedMantissaLen; i++ {
		data[feedDiscriminatorLen+i] = be[feedMantissaLen-1-i]
	}

	binary.LittleEndian.PutUint32(data[feedDiscriminatorLen+feedMantissaLen:], scale)
	return data
}

func TestDecodeResult(t *testing.T) {
	cases := []struct {
		name     string
		mantissa int64
		scale    uint32
		want     string
	}{
		{"one dollar", 1000000000, 9, "1"},
		{"eurusd-ish", 1085, 3, "1.085"},
		{"integer", 42, 0, "42"},
		{"negative", -5, 1, "-0.5"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeFeed(big.NewInt(tc.mantissa), tc.scale)

			got, err := DecodeResult(data)
			if err != nil {
				t.Fatalf("DecodeResult: %v", err)
			}

			want, _ := decimal.NewFromString(tc.want)
			if !got.Equal(want) {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestDecodeResult_Malformed(t *testing.T) {
	if _, err := DecodeResult([]byte{1, 2, 3}); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for short data, got %v", err)
	}

	data := encodeFeed(big.NewInt(1), 99)
	if _, err := DecodeResult(data); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for out-of-range scale, got %v", err)
	}
}

// fakeRPC implements the subset of solana.Client the reader touches.
type fakeRPC struct {
	accounts map[string][]byte
	fail     bool
}

func (f *fakeRPC) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	if f.fail {
		return nil, fmt.Errorf("connection refused")
	}
	data, ok := f.accounts[pubkey]
	if !ok {
		return nil, nil
	}
	return &solana.AccountInfo{Data: data}, nil
}

func (f *fakeRPC) GetProgramAccounts(context.Context, string, *solana.ProgramAccountsOpts) ([]solana.ProgramAccount, error) {
	return nil, nil
}

func (f *fakeRPC) GetTokenAccountBalance(context.Context, string) (*solana.TokenBalance, error) {
	return nil, nil
}

func (f *fakeRPC) GetLatestBlockhash(context.Context) (string, error) { return "", nil }

func (f *fakeRPC) SendTransaction(context.Context, []byte) (string, error) { return "", nil }

func TestFeedReader_FetchPrice(t *testing.T) {
	rpc := &fakeRPC{accounts: map[string][]byte{
		"feedA": encodeFeed(big.NewInt(1000000000), 9),
	}}

	reader := NewFeedReader(rpc)

	price, err := reader.FetchPrice(context.Background(), "feedA")
	if err != nil {
		t.Fatalf("FetchPrice: %v", err)
	}
	if !price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected price 1, got %s", price)
	}
}

func TestFeedReader_Unavailable(t *testing.T) {
	reader := NewFeedReader(&fakeRPC{fail: true})

	_, err := reader.FetchPrice(context.Background(), "feedA")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on transport failure, got %v", err)
	}

	reader = NewFeedReader(&fakeRPC{accounts: map[string][]byte{}})
	_, err = reader.FetchPrice(context.Background(), "missing")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for missing account, got %v", err)
	}
}
