// Package x402 is the payment capability boundary: moving funds from one
// wallet to another and handing back a transaction receipt. Settlers never
// touch agent balances — the round engine applies balance mutations only
// after a successful receipt.
package x402

import (
	"context"
)

// Receipt is the proof of one settled transfer.
type Receipt struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	TxSig    string  `json:"txSig"`
	Explorer string  `json:"explorer"`
	Verified bool    `json:"verified"`
	Mock     bool    `json:"mock,omitempty"`
}

// Settler moves funds between agents. Implementations may resolve
// immediately (mock) or after real network latency (live settlement); the
// engine awaits each call before the next balance mutation either way.
type Settler interface {
	Pay(ctx context.Context, from, to string, amount float64) (Receipt, error)
}

// ForMode picks a settler: the mock when requested or when no settlement
// endpoint is configured, otherwise the live HTTP client.
func ForMode(useMock bool, endpoint string) Settler {
	if useMock || endpoint == "" {
		return Mock{}
	}
	return NewClient(endpoint)
}
