// Package ledger wraps the Solana RPC operations the swap flow consumes:
// balance reads, broadcast, and confirmation.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solswap/pkg/swaperr"
	"solswap/pkg/types"
)

const (
	defaultPollInterval = 2 * time.Second

	// A confirmation poll needs both status and block-height reads; if the
	// endpoint stops answering either for this many rounds in a row, the
	// wait gives up instead of spinning until the process is killed.
	maxPollFailures = 10
)

// Client is a thin wrapper over the Solana JSON-RPC client.
type Client struct {
	rpc           *rpc.Client
	commitment    rpc.CommitmentType
	skipPreflight bool
	maxRetries    uint
	pollInterval  time.Duration
	logger        *zap.Logger
}

// New connects to the given RPC endpoint.
func New(rpcURL, commitment string, skipPreflight bool, maxRetries uint, logger *zap.Logger) *Client {
	return &Client{
		rpc:           rpc.New(rpcURL),
		commitment:    parseCommitment(commitment),
		skipPreflight: skipPreflight,
		maxRetries:    maxRetries,
		pollInterval:  defaultPollInterval,
		logger:        logger.Named("ledger"),
	}
}

func parseCommitment(commitment string) rpc.CommitmentType {
	switch strings.ToLower(commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// TokenBalance reads owner's balance of token in whole tokens via the
// associated token account. A missing token account reads as zero balance.
func (c *Client) TokenBalance(ctx context.Context, owner solana.PublicKey, token types.Token) (float64, error) {
	mint, err := solana.PublicKeyFromBase58(token.Address)
	if err != nil {
		return 0, swaperr.New("ledger.balance", swaperr.KindDecode,
			fmt.Errorf("invalid mint address %q: %w", token.Address, err))
	}

	tokenAccount, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, swaperr.New("ledger.balance", swaperr.KindDecode,
			fmt.Errorf("failed to derive associated token address: %w", err))
	}

	result, err := c.rpc.GetTokenAccountBalance(ctx, tokenAccount, c.commitment)
	if err != nil {
		if isAccountNotFound(err) {
			c.logger.Debug("no token account for mint, treating as zero balance",
				zap.String("owner", owner.String()), zap.String("mint", token.Address))
			return 0, nil
		}
		return 0, swaperr.New("ledger.balance", swaperr.KindNetwork, err)
	}
	if result.Value == nil {
		return 0, nil
	}

	raw, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, swaperr.New("ledger.balance", swaperr.KindDecode,
			fmt.Errorf("failed to parse token balance %q: %w", result.Value.Amount, err))
	}

	balance, _ := decimal.NewFromUint64(raw).Shift(int32(-token.Decimals)).Float64()
	return balance, nil
}

func isAccountNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "not found") || strings.Contains(msg, "could not find account")
}

// SendAndConfirm broadcasts a signed transaction with preflight disabled and
// a bounded number of RPC-level retransmissions, then blocks until the
// network reports the configured commitment or the blockhash expires.
func (c *Client) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	latest, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Signature{}, swaperr.New("ledger.send", swaperr.KindNetwork,
			fmt.Errorf("failed to get latest blockhash: %w", err))
	}

	maxRetries := c.maxRetries
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       c.skipPreflight,
		PreflightCommitment: c.commitment,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		return solana.Signature{}, swaperr.New("ledger.send", swaperr.KindRejected,
			fmt.Errorf("failed to send transaction: %w", err))
	}

	c.logger.Info("transaction broadcast",
		zap.String("signature", sig.String()),
		zap.Uint64("lastValidBlockHeight", latest.Value.LastValidBlockHeight))

	if err := c.awaitConfirmation(ctx, sig, latest.Value.LastValidBlockHeight); err != nil {
		return sig, err
	}
	return sig, nil
}

// awaitConfirmation polls signature statuses until the transaction reaches
// at least confirmed commitment, errors on-chain, or outlives its blockhash.
func (c *Client) awaitConfirmation(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	failures := 0
	for {
		var pollErr error

		statuses, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			// Transient RPC faults are retried on the next tick.
			c.logger.Debug("signature status poll failed", zap.Error(err))
			pollErr = err
		} else if len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return swaperr.New("ledger.confirm", swaperr.KindRejected,
					fmt.Errorf("transaction failed on-chain: %v", status.Err))
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
		if err != nil {
			c.logger.Debug("block height poll failed", zap.Error(err))
			pollErr = err
		} else if height > lastValidBlockHeight {
			return swaperr.New("ledger.confirm", swaperr.KindTimeout,
				fmt.Errorf("blockhash expired before confirmation (height %d > %d)", height, lastValidBlockHeight))
		}

		if pollErr == nil {
			failures = 0
		} else {
			failures++
			if failures >= maxPollFailures {
				return swaperr.New("ledger.confirm", swaperr.KindNetwork,
					fmt.Errorf("confirmation polling failed %d times in a row: %w", failures, pollErr))
			}
		}

		select {
		case <-ctx.Done():
			return swaperr.New("ledger.confirm", swaperr.KindTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// TxStatus is the ledger's view of a broadcast transaction.
type TxStatus struct {
	Slot               uint64
	Confirmations      *uint64
	ConfirmationStatus string
	Err                error
}

// SignatureStatus looks up the status of a transaction by signature.
func (c *Client) SignatureStatus(ctx context.Context, signature string) (*TxStatus, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, swaperr.New("ledger.status", swaperr.KindDecode,
			fmt.Errorf("invalid transaction signature: %w", err))
	}

	statuses, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, swaperr.New("ledger.status", swaperr.KindNetwork, err)
	}
	if len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return nil, swaperr.New("ledger.status", swaperr.KindNotFound,
			fmt.Errorf("signature %s not found", signature))
	}

	status := statuses.Value[0]
	out := &TxStatus{
		Slot:               status.Slot,
		Confirmations:      status.Confirmations,
		ConfirmationStatus: string(status.ConfirmationStatus),
	}
	if status.Err != nil {
		out.Err = fmt.Errorf("%v", status.Err)
	}
	return out, nil
}
