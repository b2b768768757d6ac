package solana

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program addresses.
const (
	SystemProgramID          = "11111111111111111111111111111111"
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	SysvarRentID             = "SysvarRent111111111111111111111111111111111"
)

// PubkeyLength is the length of a Solana public key in bytes.
const PubkeyLength = 32

// DecodePubkey decodes a base58 address and validates its length.
func DecodePubkey(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", address, err)
	}
	if len(raw) != PubkeyLength {
		return nil, fmt.Errorf("pubkey %q: expected %d bytes, got %d", address, PubkeyLength, len(raw))
	}
	return raw, nil
}

// ValidPubkey reports whether the address is a well-formed base58 public key.
func ValidPubkey(address string) bool {
	_, err := DecodePubkey(address)
	return err == nil
}

// FindProgramAddress derives a Program Derived Address for the given seeds.
// It walks bump seeds from 255 down until the resulting point is off the
// ed25519 curve, matching the on-chain derivation.
func FindProgramAddress(seeds [][]byte, programID string) (string, byte, error) {
	program, err := DecodePubkey(programID)
	if err != nil {
		return "", 0, err
	}

	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, program...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), bump, nil
		}
	}

	return "", 0, fmt.Errorf("no viable bump seed for program %s", programID)
}

// FindAssociatedTokenAddress derives the associated token account address
// for an (owner, mint) pair per the associated-token-account standard.
func FindAssociatedTokenAddress(owner, mint string) (string, error) {
	ownerRaw, err := DecodePubkey(owner)
	if err != nil {
		return "", err
	}
	mintRaw, err := DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	tokenProgram, err := DecodePubkey(TokenProgramID)
	if err != nil {
		return "", err
	}

	addr, _, err := FindProgramAddress(
		[][]byte{ownerRaw, tokenProgram, mintRaw},
		AssociatedTokenProgramID,
	)
	return addr, err
}

func isOnCurve(point []byte) bool {
	if len(point) != PubkeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
