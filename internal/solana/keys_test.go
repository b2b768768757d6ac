package solana

import (
	"testing"
)

func TestDecodePubkey(t *testing.T) {
	raw, err := DecodePubkey(TokenProgramID)
	if err != nil {
		t.Fatalf("DecodePubkey: %v", err)
	}
	if len(raw) != PubkeyLength {
		t.Errorf("expected %d bytes, got %d", PubkeyLength, len(raw))
	}
}

func TestDecodePubkey_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"bad chars", "0OIl"},
		{"too short", "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodePubkey(tc.address); err == nil {
				t.Errorf("expected error for %q", tc.address)
			}
		})
	}
}

func TestValidPubkey(t *testing.T) {
	if !ValidPubkey(SystemProgramID) {
		t.Error("system program id should be valid")
	}
	if ValidPubkey("not-a-pubkey") {
		t.Error("garbage should not be valid")
	}
}

func TestFindProgramAddress_Deterministic(t *testing.T) {
	seeds := [][]byte{[]byte("mint-authority"), make([]byte, 32)}

	addr1, bump1, err := FindProgramAddress(seeds, TokenProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	addr2, bump2, err := FindProgramAddress(seeds, TokenProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("derivation not deterministic: (%s,%d) vs (%s,%d)", addr1, bump1, addr2, bump2)
	}

	if !ValidPubkey(addr1) {
		t.Errorf("derived address %q is not a valid pubkey", addr1)
	}
}

func TestFindProgramAddress_DifferentSeedsDiffer(t *testing.T) {
	a, _, err := FindProgramAddress([][]byte{[]byte("vault-authority")}, TokenProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	b, _, err := FindProgramAddress([][]byte{[]byte("mint-authority")}, TokenProgramID)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	if a == b {
		t.Errorf("different seeds derived the same address %s", a)
	}
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	owner := SysvarRentID // any valid pubkey works for derivation
	mint := TokenProgramID

	ata1, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}

	ata2, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}

	if ata1 != ata2 {
		t.Errorf("ATA derivation not deterministic: %s vs %s", ata1, ata2)
	}

	other, err := FindAssociatedTokenAddress(mint, owner)
	if err != nil {
		t.Fatalf("FindAssociatedTokenAddress: %v", err)
	}
	if other == ata1 {
		t.Error("swapping owner and mint should derive a different address")
	}
}
