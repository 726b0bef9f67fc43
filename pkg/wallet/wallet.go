// Package wallet abstracts the connected signing capability. Key material
// stays inside the implementation; callers only read the public key and
// request signatures.
package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"solswap/pkg/swaperr"
)

// Wallet is the connection the swap orchestrator reads.
type Wallet interface {
	Connected() bool
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// Disconnected is the wallet state before any key is configured.
type Disconnected struct{}

func (Disconnected) Connected() bool             { return false }
func (Disconnected) PublicKey() solana.PublicKey { return solana.PublicKey{} }

func (Disconnected) SignTransaction(*solana.Transaction) error {
	return swaperr.New("wallet.sign", swaperr.KindRejected,
		fmt.Errorf("no wallet connected"))
}

// Local signs with an in-process keypair.
type Local struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

// NewLocal builds a wallet from a Base58-encoded private key.
func NewLocal(base58Key string) (*Local, error) {
	privateKey, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Local{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

func (w *Local) Connected() bool             { return true }
func (w *Local) PublicKey() solana.PublicKey { return w.publicKey }

// SignTransaction adds this wallet's signature. Partial signing keeps any
// signatures the aggregator already placed on the payload.
func (w *Local) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.publicKey) {
			return &w.privateKey
		}
		return nil
	})
	if err != nil {
		return swaperr.New("wallet.sign", swaperr.KindRejected, err)
	}
	return nil
}
