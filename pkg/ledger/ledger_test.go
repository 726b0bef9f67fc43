package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solswap/pkg/swaperr"
	"solswap/pkg/types"
)

func TestParseCommitment(t *testing.T) {
	tests := []struct {
		in   string
		want rpc.CommitmentType
	}{
		{"finalized", rpc.CommitmentFinalized},
		{"confirmed", rpc.CommitmentConfirmed},
		{"processed", rpc.CommitmentProcessed},
		{"CONFIRMED", rpc.CommitmentConfirmed},
		{"", rpc.CommitmentConfirmed},
		{"bogus", rpc.CommitmentConfirmed},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommitment(tt.in), "input=%q", tt.in)
	}
}

func TestIsAccountNotFound(t *testing.T) {
	assert.True(t, isAccountNotFound(errors.New("rpc: account not found")))
	assert.True(t, isAccountNotFound(errors.New("could not find account")))
	assert.False(t, isAccountNotFound(errors.New("connection refused")))
}

// Base58 of 32 and 64 zero bytes, valid as a blockhash and a signature.
var (
	zeroBlockhash = strings.Repeat("1", 32)
	zeroSignature = strings.Repeat("1", 64)
)

type rpcCall struct {
	ID     interface{} `json:"id"`
	Method string      `json:"method"`
}

// fakeRPC serves JSON-RPC over httptest; handler returns either a result or
// an error object for each method.
func fakeRPC(t *testing.T, handler func(method string) (result interface{}, rpcErr map[string]interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		require.NoError(t, json.NewDecoder(r.Body).Decode(&call))

		result, rpcErr := handler(call.Method)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": call.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func latestBlockhashResult(lastValidBlockHeight uint64) interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 100},
		"value": map[string]interface{}{
			"blockhash":            zeroBlockhash,
			"lastValidBlockHeight": lastValidBlockHeight,
		},
	}
}

func signedTransferTx(t *testing.T) *solana.Transaction {
	t.Helper()
	from := solana.NewWallet()
	to := solana.NewWallet()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, from.PublicKey(), to.PublicKey()).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(from.PublicKey()),
	)
	require.NoError(t, err)

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)
	return tx
}

func newTestLedger(url string) *Client {
	c := New(url, "confirmed", true, 2, zap.NewNop())
	c.pollInterval = time.Millisecond
	return c
}

func TestTokenBalanceMissingAccountReadsZero(t *testing.T) {
	srv := fakeRPC(t, func(method string) (interface{}, map[string]interface{}) {
		require.Equal(t, "getTokenAccountBalance", method)
		return nil, map[string]interface{}{
			"code":    -32602,
			"message": "Invalid param: could not find account",
		}
	})
	defer srv.Close()

	owner := solana.NewWallet().PublicKey()
	balance, err := newTestLedger(srv.URL).TokenBalance(context.Background(), owner, types.Token{
		Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Symbol:   "USDC",
		Decimals: 6,
	})
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestTokenBalanceScalesByDecimals(t *testing.T) {
	srv := fakeRPC(t, func(method string) (interface{}, map[string]interface{}) {
		require.Equal(t, "getTokenAccountBalance", method)
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 100},
			"value": map[string]interface{}{
				"amount":   "1500000",
				"decimals": 6,
			},
		}, nil
	})
	defer srv.Close()

	owner := solana.NewWallet().PublicKey()
	balance, err := newTestLedger(srv.URL).TokenBalance(context.Background(), owner, types.Token{
		Address:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Symbol:   "USDC",
		Decimals: 6,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, balance, 1e-9)
}

func TestSendAndConfirmTimesOutWhenBlockhashExpires(t *testing.T) {
	srv := fakeRPC(t, func(method string) (interface{}, map[string]interface{}) {
		switch method {
		case "getLatestBlockhash":
			return latestBlockhashResult(150), nil
		case "sendTransaction":
			return zeroSignature, nil
		case "getSignatureStatuses":
			// Never observed by the cluster.
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value":   []interface{}{nil},
			}, nil
		case "getBlockHeight":
			return 151, nil
		}
		t.Errorf("unexpected rpc method %s", method)
		return nil, map[string]interface{}{"code": -32601, "message": "method not found"}
	})
	defer srv.Close()

	_, err := newTestLedger(srv.URL).SendAndConfirm(context.Background(), signedTransferTx(t))
	require.Error(t, err)
	assert.Equal(t, swaperr.KindTimeout, swaperr.KindOf(err))
}

func TestSendAndConfirmConfirmed(t *testing.T) {
	srv := fakeRPC(t, func(method string) (interface{}, map[string]interface{}) {
		switch method {
		case "getLatestBlockhash":
			return latestBlockhashResult(150), nil
		case "sendTransaction":
			return zeroSignature, nil
		case "getSignatureStatuses":
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 100},
				"value": []interface{}{map[string]interface{}{
					"slot":               100,
					"confirmations":      5,
					"err":                nil,
					"confirmationStatus": "confirmed",
				}},
			}, nil
		}
		t.Errorf("unexpected rpc method %s", method)
		return nil, map[string]interface{}{"code": -32601, "message": "method not found"}
	})
	defer srv.Close()

	sig, err := newTestLedger(srv.URL).SendAndConfirm(context.Background(), signedTransferTx(t))
	require.NoError(t, err)
	assert.Equal(t, zeroSignature, sig.String())
}

func TestSendAndConfirmGivesUpOnPersistentPollFailures(t *testing.T) {
	srv := fakeRPC(t, func(method string) (interface{}, map[string]interface{}) {
		switch method {
		case "getLatestBlockhash":
			return latestBlockhashResult(150), nil
		case "sendTransaction":
			return zeroSignature, nil
		}
		// Endpoint goes dark right after the broadcast.
		return nil, map[string]interface{}{"code": -32000, "message": "node is behind"}
	})
	defer srv.Close()

	done := make(chan error, 1)
	go func() {
		_, err := newTestLedger(srv.URL).SendAndConfirm(context.Background(), signedTransferTx(t))
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, swaperr.KindNetwork, swaperr.KindOf(err))
	case <-time.After(5 * time.Second):
		t.Fatal("confirmation wait did not give up on a dead endpoint")
	}
}
