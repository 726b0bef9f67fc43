// Package swap holds the orchestrator that ties the catalog, price, quote,
// wallet, and ledger collaborators into one event-driven swap flow.
package swap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solswap/pkg/jupiter"
	"solswap/pkg/swaperr"
	"solswap/pkg/types"
	"solswap/pkg/wallet"
)

// CatalogSource loads the swappable token list.
type CatalogSource interface {
	Load(ctx context.Context) ([]types.Token, error)
}

// PriceSource resolves USD unit prices for display.
type PriceSource interface {
	Price(ctx context.Context, token types.Token) (float64, error)
}

// QuoteSource produces priced routes and builds swap transactions.
type QuoteSource interface {
	Quote(ctx context.Context, src, dst types.Token, amount string, slippagePct float64) (*types.Quote, error)
	BuildSwapTransaction(ctx context.Context, q *types.Quote, userPublicKey string) ([]byte, error)
}

// Ledger reads balances and broadcasts signed transactions.
type Ledger interface {
	TokenBalance(ctx context.Context, owner solana.PublicKey, token types.Token) (float64, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Notifier surfaces transient user-facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Deps collects the orchestrator's collaborators.
type Deps struct {
	Catalog CatalogSource
	Prices  PriceSource
	Quotes  QuoteSource
	Ledger  Ledger
	Wallet  wallet.Wallet
	Notify  Notifier
	Logger  *zap.Logger
}

// Orchestrator owns the Session and reacts to input events. Fetches run
// asynchronously; each state slot carries a monotonically increasing request
// sequence number and a completion whose number is no longer the latest for
// its slot is discarded, so an older response can never overwrite a newer
// one (last-fetch-wins).
type Orchestrator struct {
	mu      sync.Mutex
	catalog CatalogSource
	prices  PriceSource
	quotes  QuoteSource
	ledger  Ledger
	wallet  wallet.Wallet
	notify  Notifier
	log     *zap.Logger

	sess Session

	quoteSeq    uint64
	srcPriceSeq uint64
	dstPriceSeq uint64
	balanceSeq  uint64

	pending sync.WaitGroup
}

// New creates an orchestrator with an idle session.
func New(deps Deps) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		catalog: deps.Catalog,
		prices:  deps.Prices,
		quotes:  deps.Quotes,
		ledger:  deps.Ledger,
		wallet:  deps.Wallet,
		notify:  deps.Notify,
		log:     log.Named("swap"),
		sess:    Session{Slippage: 1.0, Phase: PhaseIdle},
	}
}

// Init loads the token catalog. Load is best-effort: on failure the catalog
// stays empty and the session remains usable.
func (o *Orchestrator) Init(ctx context.Context) {
	tokens, err := o.catalog.Load(ctx)
	if err != nil {
		o.log.Warn("token catalog load failed, continuing with empty catalog", zap.Error(err))
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sess.Tokens = tokens
}

// Snapshot returns a copy of the current session.
func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.clone()
}

// Wait blocks until every in-flight refresh has completed or been discarded.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}

// SetSource selects the token being sold and refreshes the balance, the
// source price, and the quote.
func (o *Orchestrator) SetSource(ctx context.Context, t types.Token) {
	o.mu.Lock()
	defer o.mu.Unlock()
	src := t
	o.sess.Source = &src
	o.sess.SourceUSD = nil
	o.sess.Balance = 0
	o.scheduleBalance(ctx)
	o.schedulePrice(ctx, src, slotSource)
	o.scheduleQuote(ctx)
	o.recomputePhase()
}

// SetDest selects the token being bought and refreshes the destination
// price and the quote.
func (o *Orchestrator) SetDest(ctx context.Context, t types.Token) {
	o.mu.Lock()
	defer o.mu.Unlock()
	dst := t
	o.sess.Dest = &dst
	o.sess.DestUSD = nil
	o.schedulePrice(ctx, dst, slotDest)
	o.scheduleQuote(ctx)
	o.recomputePhase()
}

// SetAmount updates the entered amount and refreshes the quote.
func (o *Orchestrator) SetAmount(ctx context.Context, amount string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sess.Amount = amount
	o.scheduleQuote(ctx)
	o.recomputePhase()
}

// SetSlippage updates the slippage tolerance in percent and refreshes the
// quote.
func (o *Orchestrator) SetSlippage(ctx context.Context, pct float64) error {
	if pct <= 0 || pct > 50 {
		return fmt.Errorf("slippage must be between 0 and 50 percent, got %v", pct)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.sess.Slippage = pct
	o.scheduleQuote(ctx)
	o.recomputePhase()
	return nil
}

// Flip exchanges the source and destination selections. The entered amount
// is untouched; the output amount re-derives through a fresh quote.
func (o *Orchestrator) Flip(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sess.Source, o.sess.Dest = o.sess.Dest, o.sess.Source
	o.sess.SourceUSD, o.sess.DestUSD = o.sess.DestUSD, o.sess.SourceUSD
	o.sess.Balance = 0
	o.scheduleBalance(ctx)
	o.scheduleQuote(ctx)
	o.recomputePhase()
}

type priceSlot int

const (
	slotSource priceSlot = iota
	slotDest
)

// scheduleQuote issues an asynchronous quote refresh. Caller holds o.mu.
func (o *Orchestrator) scheduleQuote(ctx context.Context) {
	o.quoteSeq++

	if o.sess.Source == nil || o.sess.Dest == nil || o.sess.Amount == "" ||
		o.sess.Source.Same(*o.sess.Dest) {
		o.sess.Quote = nil
		o.sess.OutAmount = ""
		return
	}

	seq := o.quoteSeq
	src, dst := *o.sess.Source, *o.sess.Dest
	amount, slippage := o.sess.Amount, o.sess.Slippage

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		q, err := o.quotes.Quote(ctx, src, dst, amount, slippage)

		o.mu.Lock()
		defer o.mu.Unlock()
		if seq != o.quoteSeq {
			o.log.Debug("discarding stale quote response", zap.Uint64("seq", seq))
			return
		}
		if err != nil {
			// Quote failures leave the previously displayed amount alone.
			o.log.Warn("quote fetch failed", zap.Error(err))
			return
		}
		o.sess.Quote = q
		o.sess.OutAmount = jupiter.FormatOutAmount(q.OutAmount, dst)
		o.recomputePhase()
	}()
}

// schedulePrice issues an asynchronous USD price refresh for one slot.
// Caller holds o.mu.
func (o *Orchestrator) schedulePrice(ctx context.Context, token types.Token, slot priceSlot) {
	var seq uint64
	if slot == slotSource {
		o.srcPriceSeq++
		seq = o.srcPriceSeq
	} else {
		o.dstPriceSeq++
		seq = o.dstPriceSeq
	}

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		price, err := o.prices.Price(ctx, token)

		o.mu.Lock()
		defer o.mu.Unlock()
		latest := o.dstPriceSeq
		if slot == slotSource {
			latest = o.srcPriceSeq
		}
		if seq != latest {
			return
		}
		if err != nil {
			// Advisory data only: absent on failure, no user interruption.
			o.log.Debug("price lookup failed", zap.String("mint", token.Address), zap.Error(err))
			return
		}
		if slot == slotSource {
			o.sess.SourceUSD = &price
		} else {
			o.sess.DestUSD = &price
		}
	}()
}

// scheduleBalance issues an asynchronous balance refresh for the current
// source token. Caller holds o.mu.
func (o *Orchestrator) scheduleBalance(ctx context.Context) {
	o.balanceSeq++

	if o.sess.Source == nil || !o.wallet.Connected() {
		return
	}

	seq := o.balanceSeq
	src := *o.sess.Source
	owner := o.wallet.PublicKey()

	o.pending.Add(1)
	go func() {
		defer o.pending.Done()
		balance, err := o.ledger.TokenBalance(ctx, owner, src)

		o.mu.Lock()
		defer o.mu.Unlock()
		if seq != o.balanceSeq {
			return
		}
		if err != nil {
			o.log.Warn("balance lookup failed, treating as zero", zap.Error(err))
			balance = 0
		}
		o.sess.Balance = balance
		o.recomputePhase()
	}()
}

// recomputePhase derives the lifecycle phase from current inputs. Caller
// holds o.mu. Submitting/confirmed/failed are set by Execute, not here.
func (o *Orchestrator) recomputePhase() {
	switch {
	case o.sess.Source == nil || o.sess.Dest == nil:
		o.sess.Phase = PhaseIdle
	case o.sess.Quote == nil:
		o.sess.Phase = PhaseQuoting
	case o.wallet.Connected() && o.amountWithinBalance():
		o.sess.Phase = PhaseReady
	default:
		o.sess.Phase = PhaseQuoting
	}
}

// amountWithinBalance reports whether the entered amount parses and does not
// exceed the observed balance. Caller holds o.mu.
func (o *Orchestrator) amountWithinBalance() bool {
	amount, err := decimal.NewFromString(o.sess.Amount)
	if err != nil || amount.Sign() <= 0 {
		return false
	}
	return amount.LessThanOrEqual(decimal.NewFromFloat(o.sess.Balance))
}

// Execute runs the swap sequence: validate, re-quote, build, sign,
// broadcast, confirm. It is only ever called on explicit user confirmation.
// Failures surface as notifications; the pre-attempt selection is kept so
// the user can retry manually.
func (o *Orchestrator) Execute(ctx context.Context) error {
	o.mu.Lock()

	if o.sess.Source == nil || o.sess.Dest == nil || !o.wallet.Connected() {
		o.mu.Unlock()
		o.notify.Error("Please select valid tokens and connect wallet.")
		return swaperr.New("swap.execute", swaperr.KindUnavailable,
			errors.New("missing token selection or wallet"))
	}
	if o.sess.Source.Same(*o.sess.Dest) {
		o.mu.Unlock()
		o.notify.Error("Please select valid tokens and connect wallet.")
		return swaperr.New("swap.execute", swaperr.KindUnavailable,
			errors.New("source and destination tokens are identical"))
	}
	if !o.amountWithinBalance() {
		o.mu.Unlock()
		o.notify.Error("Insufficient balance to perform the swap.")
		return swaperr.New("swap.execute", swaperr.KindUnavailable,
			errors.New("entered amount exceeds observed balance"))
	}

	src, dst := *o.sess.Source, *o.sess.Dest
	amount, slippage := o.sess.Amount, o.sess.Slippage
	o.sess.Phase = PhaseSubmitting
	o.mu.Unlock()

	sig, err := o.executeSwap(ctx, src, dst, amount, slippage)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.sess.Phase = PhaseFailed
		return err
	}
	o.sess.Phase = PhaseConfirmed
	o.sess.LastSignature = sig.String()
	return nil
}

func (o *Orchestrator) executeSwap(ctx context.Context, src, dst types.Token, amount string, slippage float64) (solana.Signature, error) {
	// Always execute against a quote fetched after the confirmation, never
	// one displayed earlier.
	q, err := o.quotes.Quote(ctx, src, dst, amount, slippage)
	if err != nil {
		o.notify.Error("Unable to fetch quote for the swap.")
		return solana.Signature{}, err
	}

	raw, err := o.quotes.BuildSwapTransaction(ctx, q, o.wallet.PublicKey().String())
	if err != nil {
		o.notify.Error("Error signing or sending the transaction.")
		return solana.Signature{}, err
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		o.notify.Error("Error signing or sending the transaction.")
		return solana.Signature{}, swaperr.New("swap.decode", swaperr.KindDecode, err)
	}

	if err := o.wallet.SignTransaction(tx); err != nil {
		o.notify.Error("Error signing or sending the transaction.")
		return solana.Signature{}, err
	}

	sig, err := o.ledger.SendAndConfirm(ctx, tx)
	if err != nil {
		o.notify.Error("Error signing or sending the transaction.")
		return solana.Signature{}, err
	}

	o.notify.Success("Transaction successful: https://solscan.io/tx/" + sig.String())
	return sig, nil
}
