package gateway

import (
	"errors"
	"fmt"

	"stablefun/internal/solana"
)

var (
	// ErrNotFound is returned when a stablecoin address is unknown to the ledger.
	ErrNotFound = errors.New("stablecoin not found")

	// ErrDecode is returned when ledger account data does not match the
	// expected layout. Remote shapes are never trusted implicitly.
	ErrDecode = errors.New("malformed account data")
)

// TransportError wraps a network or node failure. It is surfaced verbatim to
// the caller; no layer above the RPC client retries automatically.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LedgerError is a command the remote program refused for a domain reason
// (insufficient collateral, authority mismatch, arithmetic overflow).
// A rejected command has no side effect on ledger state.
type LedgerError struct {
	Code   int
	Reason string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("rejected by ledger: %s", e.Reason)
}

// classifyRPCError maps an RPC failure to the gateway taxonomy: node-level
// JSON-RPC errors from a submission are ledger rejections, everything else
// is transport.
func classifyRPCError(op string, err error) error {
	var rpcErr *solana.RPCError
	if errors.As(err, &rpcErr) {
		return &LedgerError{Code: rpcErr.Code, Reason: rpcErr.Message}
	}
	return &TransportError{Op: op, Err: err}
}
