// Package wallet provides the signing identity used to authorize commands.
// It deliberately stops at key loading and message signing; key custody,
// hardware wallets and approval UIs are outside this client.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
)

// Keypair is an ed25519 signing identity. It implements solana.Signer.
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// Load reads a solana-cli style keypair file: a JSON array of 64 bytes
// holding the private key seed followed by the public key.
func Load(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}

	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keypair file %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair file %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	return &Keypair{
		pub:  priv.Public().(ed25519.PublicKey),
		priv: priv,
	}, nil
}

// NewEphemeral generates a fresh keypair. Used for the stablecoin, mint and
// vault accounts a create command must sign for.
func NewEphemeral() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// Pubkey returns the base58 public key.
func (k *Keypair) Pubkey() string {
	return base58.Encode(k.pub)
}

// Sign signs the message with the keypair's private key.
func (k *Keypair) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(k.priv, message), nil
}
