package x402

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Mock synthesizes receipts without touching any network. Signatures are
// unique per call but deliberately outside the run's deterministic stream:
// receipts identify transactions, they do not drive decisions.
type Mock struct{}

// Pay returns a synthetic verified receipt.
func (Mock) Pay(_ context.Context, from, to string, amount float64) (Receipt, error) {
	sig := "mock-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	return Receipt{
		From:     from,
		To:       to,
		Amount:   amount,
		TxSig:    sig,
		Explorer: fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=devnet", sig),
		Verified: true,
		Mock:     true,
	}, nil
}
