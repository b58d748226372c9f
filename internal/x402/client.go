package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client settles transfers against a real x402 settlement endpoint. A failed
// or unverified settlement surfaces as an error; the engine then treats the
// step as skipped and applies no balance mutation.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a settlement client for the given endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type settleRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Pay posts the transfer to the settlement endpoint and decodes the receipt.
func (c *Client) Pay(ctx context.Context, from, to string, amount float64) (Receipt, error) {
	body, err := json.Marshal(settleRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return Receipt{}, fmt.Errorf("x402 marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("x402 request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("x402 settle: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Receipt{}, fmt.Errorf("x402 read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Receipt{}, fmt.Errorf("x402 settle: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("x402 parse receipt: %w", err)
	}
	if !receipt.Verified {
		return Receipt{}, fmt.Errorf("x402 settle: receipt %s not verified", receipt.TxSig)
	}
	return receipt, nil
}
