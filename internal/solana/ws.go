package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeProgram subscribes to account changes for all accounts owned
	// by the program. The channel is closed when the client is closed.
	SubscribeProgram(ctx context.Context, programID string) (<-chan AccountUpdate, error)

	// Close shuts down the connection and all subscriptions.
	Close() error
}

// AccountUpdate is a single program-account change notification.
type AccountUpdate struct {
	Pubkey  string
	Slot    int64
	Account AccountInfo
}
