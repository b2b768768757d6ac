package domain

// CreateParams are the user-supplied parameters for issuing a new stablecoin.
// Currency must be one of the configured supported codes; it is resolved to an
// oracle price feed before submission.
type CreateParams struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Currency    string `json:"currency"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// Receipt is the gateway acknowledgment for a successfully submitted command.
// Signature is the transaction signature usable for user-facing confirmation.
// The address fields are populated for create commands only.
type Receipt struct {
	Signature         string `json:"signature"`
	StablecoinAddress string `json:"stablecoin_address,omitempty"`
	MintAddress       string `json:"mint_address,omitempty"`
	VaultAddress      string `json:"vault_address,omitempty"`
}
