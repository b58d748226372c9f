// Package ledger defines the append-only event record produced by a run.
// Entries are created only by the round engine and consumed read-only by the
// metrics and narrative layers.
package ledger

// Kind classifies a ledger entry.
type Kind string

const (
	KindFreeData Kind = "free-data" // data handed over during the free window
	KindPayment  Kind = "payment"   // settled x402 data purchase
	KindBribe    Kind = "bribe"     // private side-payment
	KindSkipped  Kind = "skipped"   // payment that could not be made
	KindReveal   Kind = "reveal"    // whistleblower marker, no balance effect
	KindSidePay  Kind = "side-pay"  // reserved: side-payment recorded by an external settler
)

// Entry is one economic event. Entries are write-once: once appended to a
// run's ledger they are never mutated or removed.
//
// Public=false marks a side-deal hidden from the public market signal; the
// collusion metrics key off this flag.
type Entry struct {
	Round    int     `json:"round"`
	Kind     Kind    `json:"kind"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	TxSig    string  `json:"txSig,omitempty"`
	Explorer string  `json:"explorer,omitempty"`
	Public   bool    `json:"public"`
	Summary  string  `json:"summary"`
	Comment  string  `json:"comment"`
}

// IsPaymentLike reports whether the entry moves (or represents moving) funds.
// The narrative layer treats these as transactions.
func (e Entry) IsPaymentLike() bool {
	return e.Kind == KindPayment || e.Kind == KindBribe || e.Kind == KindSidePay
}
