package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
)

type testSigner struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func newTestSigner(t *testing.T) *testSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &testSigner{pub: pub, priv: priv}
}

func (s *testSigner) Pubkey() string {
	return base58.Encode(s.pub)
}

func (s *testSigner) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

func testBlockhash() string {
	return base58.Encode(bytes.Repeat([]byte{7}, 32))
}

func TestAppendShortvecLen(t *testing.T) {
	cases := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}

	for _, tc := range cases {
		got := appendShortvecLen(nil, tc.n)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("shortvec(%d) = %v, want %v", tc.n, got, tc.want)
		}
	}
}

func TestBuildTransaction_SignatureVerifies(t *testing.T) {
	payer := newTestSigner(t)
	target := newTestSigner(t)

	ix := Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: payer.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: target.Pubkey(), IsSigner: false, IsWritable: true},
		},
		Data: []byte{2, 0, 0, 0},
	}

	tx, sig, err := BuildTransaction([]Instruction{ix}, testBlockhash(), []Signer{payer})
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}

	if sig == "" {
		t.Fatal("expected non-empty signature")
	}

	// Wire format: shortvec sig count, then 64-byte signatures, then message.
	if tx[0] != 1 {
		t.Fatalf("expected 1 signature, got %d", tx[0])
	}

	sigBytes := tx[1:65]
	msg := tx[65:]

	if !ed25519.Verify(payer.pub, msg, sigBytes) {
		t.Error("fee payer signature does not verify against message")
	}

	decoded, err := base58.Decode(sig)
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	if !bytes.Equal(decoded, sigBytes) {
		t.Error("returned signature does not match wire signature")
	}
}

func TestBuildTransaction_AccountOrdering(t *testing.T) {
	payer := newTestSigner(t)
	extra := newTestSigner(t)
	readonly := newTestSigner(t)

	ix := Instruction{
		ProgramID: TokenProgramID,
		Accounts: []AccountMeta{
			{Pubkey: readonly.Pubkey(), IsSigner: false, IsWritable: false},
			{Pubkey: extra.Pubkey(), IsSigner: true, IsWritable: true},
			{Pubkey: payer.Pubkey(), IsSigner: true, IsWritable: true},
		},
		Data: []byte{1},
	}

	keys, err := collectAccountKeys([]Instruction{ix}, []Signer{payer, extra})
	if err != nil {
		t.Fatalf("collectAccountKeys: %v", err)
	}

	if keys[0].Pubkey != payer.Pubkey() {
		t.Errorf("fee payer must be first, got %s", keys[0].Pubkey)
	}
	if keys[1].Pubkey != extra.Pubkey() {
		t.Errorf("writable signer must follow payer, got %s", keys[1].Pubkey)
	}

	last := keys[len(keys)-1]
	if last.IsSigner || last.IsWritable {
		t.Errorf("last key should be readonly non-signer, got %+v", last)
	}

	if countSigners(keys) != 2 {
		t.Errorf("expected 2 signers, got %d", countSigners(keys))
	}
}

func TestBuildTransaction_MissingSigner(t *testing.T) {
	payer := newTestSigner(t)
	other := newTestSigner(t)

	ix := Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: other.Pubkey(), IsSigner: true, IsWritable: true},
		},
	}

	_, _, err := BuildTransaction([]Instruction{ix}, testBlockhash(), []Signer{payer})
	if err == nil {
		t.Fatal("expected error for missing signer")
	}
}

func TestBuildTransaction_MultipleSigners(t *testing.T) {
	payer := newTestSigner(t)
	second := newTestSigner(t)

	ix := Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: second.Pubkey(), IsSigner: true, IsWritable: true},
		},
		Data: []byte{9},
	}

	tx, _, err := BuildTransaction([]Instruction{ix}, testBlockhash(), []Signer{payer, second})
	if err != nil {
		t.Fatalf("BuildTransaction: %v", err)
	}

	if tx[0] != 2 {
		t.Fatalf("expected 2 signatures, got %d", tx[0])
	}

	msg := tx[1+2*64:]
	if !ed25519.Verify(payer.pub, msg, tx[1:65]) {
		t.Error("payer signature does not verify")
	}
	if !ed25519.Verify(second.pub, msg, tx[65:129]) {
		t.Error("second signature does not verify")
	}
}
