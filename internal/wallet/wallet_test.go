package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
)

func TestLoad_RoundTrip(t *testing.T) {
	kp, err := NewEphemeral()
	if err != nil {
		t.Fatalf("NewEphemeral: %v", err)
	}

	data, err := json.Marshal([]byte(kp.priv))
	if err != nil {
		t.Fatalf("marshal keypair: %v", err)
	}

	path := filepath.Join(t.TempDir(), "id.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write keypair file: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Pubkey() != kp.Pubkey() {
		t.Errorf("pubkey mismatch: %s vs %s", loaded.Pubkey(), kp.Pubkey())
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`[1,2,3]`), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for short keypair")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSign_Verifies(t *testing.T) {
	kp, err := NewEphemeral()
	if err != nil {
		t.Fatalf("NewEphemeral: %v", err)
	}

	msg := []byte("refresh then submit")
	sig, err := kp.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	pub, err := base58.Decode(kp.Pubkey())
	if err != nil {
		t.Fatalf("decode pubkey: %v", err)
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		t.Error("signature does not verify")
	}
}
