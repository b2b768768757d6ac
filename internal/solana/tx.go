package solana

import (
	"fmt"
	"sort"

	"github.com/mr-tron/base58"
)

// Signer produces ed25519 signatures over serialized transaction messages.
// Implementations live outside this package; key custody is not a transport
// concern.
type Signer interface {
	// Pubkey returns the base58 public key of the signing identity.
	Pubkey() string

	// Sign signs the serialized message and returns a 64-byte signature.
	Sign(message []byte) ([]byte, error)
}

// AccountMeta describes how an instruction touches an account.
type AccountMeta struct {
	Pubkey     string
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation within a transaction.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// BuildTransaction assembles, serializes and signs a legacy transaction.
// The fee payer is the first signer. Returns the wire-format transaction and
// the base58 signature of the fee payer (the transaction signature).
func BuildTransaction(instructions []Instruction, recentBlockhash string, signers []Signer) ([]byte, string, error) {
	if len(signers) == 0 {
		return nil, "", fmt.Errorf("at least one signer required")
	}

	msg, keys, err := compileMessage(instructions, recentBlockhash, signers)
	if err != nil {
		return nil, "", err
	}

	// One signature per required signer, in account-key order.
	signerByKey := make(map[string]Signer, len(signers))
	for _, s := range signers {
		signerByKey[s.Pubkey()] = s
	}

	var txSignature string
	numSigners := countSigners(keys)

	tx := appendShortvecLen(nil, numSigners)
	for i := 0; i < numSigners; i++ {
		s, ok := signerByKey[keys[i].Pubkey]
		if !ok {
			return nil, "", fmt.Errorf("missing signer for account %s", keys[i].Pubkey)
		}
		sig, err := s.Sign(msg)
		if err != nil {
			return nil, "", fmt.Errorf("sign with %s: %w", keys[i].Pubkey, err)
		}
		if len(sig) != 64 {
			return nil, "", fmt.Errorf("signer %s returned %d-byte signature", keys[i].Pubkey, len(sig))
		}
		if i == 0 {
			txSignature = base58.Encode(sig)
		}
		tx = append(tx, sig...)
	}

	tx = append(tx, msg...)
	return tx, txSignature, nil
}

// compileMessage builds the serialized legacy message and the ordered account
// key list it references.
func compileMessage(instructions []Instruction, recentBlockhash string, signers []Signer) ([]byte, []AccountMeta, error) {
	keys, err := collectAccountKeys(instructions, signers)
	if err != nil {
		return nil, nil, err
	}

	indexOf := make(map[string]int, len(keys))
	for i, k := range keys {
		indexOf[k.Pubkey] = i
	}

	numRequired := countSigners(keys)
	numReadonlySigned := 0
	numReadonlyUnsigned := 0
	for _, k := range keys {
		if k.IsSigner && !k.IsWritable {
			numReadonlySigned++
		}
		if !k.IsSigner && !k.IsWritable {
			numReadonlyUnsigned++
		}
	}

	blockhash, err := base58.Decode(recentBlockhash)
	if err != nil {
		return nil, nil, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(blockhash) != 32 {
		return nil, nil, fmt.Errorf("blockhash: expected 32 bytes, got %d", len(blockhash))
	}

	msg := []byte{byte(numRequired), byte(numReadonlySigned), byte(numReadonlyUnsigned)}

	msg = appendShortvecLen(msg, len(keys))
	for _, k := range keys {
		raw, err := DecodePubkey(k.Pubkey)
		if err != nil {
			return nil, nil, err
		}
		msg = append(msg, raw...)
	}

	msg = append(msg, blockhash...)

	msg = appendShortvecLen(msg, len(instructions))
	for _, ix := range instructions {
		programIdx, ok := indexOf[ix.ProgramID]
		if !ok {
			return nil, nil, fmt.Errorf("program %s not in account keys", ix.ProgramID)
		}
		msg = append(msg, byte(programIdx))

		msg = appendShortvecLen(msg, len(ix.Accounts))
		for _, a := range ix.Accounts {
			idx, ok := indexOf[a.Pubkey]
			if !ok {
				return nil, nil, fmt.Errorf("account %s not in account keys", a.Pubkey)
			}
			msg = append(msg, byte(idx))
		}

		msg = appendShortvecLen(msg, len(ix.Data))
		msg = append(msg, ix.Data...)
	}

	return msg, keys, nil
}

// collectAccountKeys merges instruction account metas and program ids into the
// canonical ordering: writable signers, readonly signers, writable
// non-signers, readonly non-signers. The fee payer (first signer) is always
// first.
func collectAccountKeys(instructions []Instruction, signers []Signer) ([]AccountMeta, error) {
	merged := make(map[string]*AccountMeta)
	order := []string{}

	upsert := func(m AccountMeta) {
		existing, ok := merged[m.Pubkey]
		if !ok {
			cp := m
			merged[m.Pubkey] = &cp
			order = append(order, m.Pubkey)
			return
		}
		existing.IsSigner = existing.IsSigner || m.IsSigner
		existing.IsWritable = existing.IsWritable || m.IsWritable
	}

	payer := signers[0].Pubkey()
	upsert(AccountMeta{Pubkey: payer, IsSigner: true, IsWritable: true})

	for _, ix := range instructions {
		for _, a := range ix.Accounts {
			upsert(a)
		}
		upsert(AccountMeta{Pubkey: ix.ProgramID, IsSigner: false, IsWritable: false})
	}

	keys := make([]AccountMeta, 0, len(merged))
	for _, pk := range order {
		keys = append(keys, *merged[pk])
	}

	rank := func(m AccountMeta) int {
		switch {
		case m.Pubkey == payer:
			return 0
		case m.IsSigner && m.IsWritable:
			return 1
		case m.IsSigner:
			return 2
		case m.IsWritable:
			return 3
		default:
			return 4
		}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return rank(keys[i]) < rank(keys[j])
	})

	return keys, nil
}

func countSigners(keys []AccountMeta) int {
	n := 0
	for _, k := range keys {
		if k.IsSigner {
			n++
		}
	}
	return n
}

// appendShortvecLen appends a compact-u16 length in the Solana shortvec
// encoding: 7 bits per byte, low byte first, high bit as continuation flag.
func appendShortvecLen(buf []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}
