package x402

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockReceipt(t *testing.T) {
	r, err := Mock{}.Pay(context.Background(), "trader", "oracle", 0.001)
	require.NoError(t, err)

	assert.Equal(t, "trader", r.From)
	assert.Equal(t, "oracle", r.To)
	assert.Equal(t, 0.001, r.Amount)
	assert.True(t, r.Verified)
	assert.True(t, r.Mock)
	assert.True(t, strings.HasPrefix(r.TxSig, "mock-"), "sig %q", r.TxSig)
	assert.Contains(t, r.Explorer, r.TxSig)
	assert.Contains(t, r.Explorer, "cluster=devnet")
}

func TestMockSigsUnique(t *testing.T) {
	a, _ := Mock{}.Pay(context.Background(), "a", "b", 1)
	b, _ := Mock{}.Pay(context.Background(), "a", "b", 1)
	assert.NotEqual(t, a.TxSig, b.TxSig)
}

func TestForMode(t *testing.T) {
	assert.IsType(t, Mock{}, ForMode(true, "http://settle.example"))
	assert.IsType(t, Mock{}, ForMode(false, ""))
	assert.IsType(t, &Client{}, ForMode(false, "http://settle.example"))
}

func TestClientPay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req settleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "strategist", req.From)

		json.NewEncoder(w).Encode(Receipt{
			From: req.From, To: req.To, Amount: req.Amount,
			TxSig: "live-abc", Explorer: "https://explorer.solana.com/tx/live-abc", Verified: true,
		})
	}))
	defer srv.Close()

	r, err := NewClient(srv.URL).Pay(context.Background(), "strategist", "trader", 0.003)
	require.NoError(t, err)
	assert.Equal(t, "live-abc", r.TxSig)
	assert.True(t, r.Verified)
}

func TestClientPayFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "insufficient funds", http.StatusPaymentRequired)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Pay(context.Background(), "a", "b", 1)
		assert.ErrorContains(t, err, "status 402")
	})

	t.Run("unverified receipt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Receipt{TxSig: "live-bad", Verified: false})
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Pay(context.Background(), "a", "b", 1)
		assert.ErrorContains(t, err, "not verified")
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		_, err := NewClient("http://127.0.0.1:1").Pay(context.Background(), "a", "b", 1)
		assert.Error(t, err)
	})
}
