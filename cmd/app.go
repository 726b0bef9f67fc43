package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solswap/config"
	"solswap/pkg/catalog"
	"solswap/pkg/jupiter"
	"solswap/pkg/ledger"
	"solswap/pkg/logging"
	"solswap/pkg/pricing"
	"solswap/pkg/swap"
	"solswap/pkg/types"
	"solswap/pkg/wallet"
)

const httpTimeout = 15 * time.Second

// app wires the collaborators a command needs from the configuration.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	tokens *catalog.Loader
	oracle *pricing.Oracle
	jup    *jupiter.Client
	ledger *ledger.Client
	wallet wallet.Wallet
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log := logging.New(level)

	a := &app{
		cfg:    cfg,
		log:    log,
		tokens: catalog.NewLoader(cfg.TokenListURL, httpTimeout, log),
		oracle: pricing.NewOracle(cfg.PriceAPIURL, httpTimeout, time.Duration(cfg.PriceCacheTTL)*time.Second, log),
		jup:    jupiter.NewClient(cfg.QuoteAPIURL, httpTimeout, log),
		ledger: ledger.New(cfg.RPCURL, cfg.Commitment, cfg.SkipPreflight, cfg.MaxRetries, log),
		wallet: wallet.Disconnected{},
	}

	if cfg.PrivateKey != "" {
		w, err := wallet.NewLocal(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		a.wallet = w
	}

	return a, nil
}

func (a *app) orchestrator() *swap.Orchestrator {
	return swap.New(swap.Deps{
		Catalog: a.tokens,
		Prices:  a.oracle,
		Quotes:  a.jup,
		Ledger:  a.ledger,
		Wallet:  a.wallet,
		Notify:  toastNotifier{},
		Logger:  a.log,
	})
}

// resolveToken finds a catalog entry by symbol or, for long inputs, by mint
// address.
func resolveToken(tokens []types.Token, arg string) (types.Token, error) {
	if len(arg) > 30 {
		if t, ok := catalog.FindByAddress(tokens, arg); ok {
			return t, nil
		}
		return types.Token{}, fmt.Errorf("token with mint address '%s' not found in the verified list", arg)
	}
	if t, ok := catalog.FindBySymbol(tokens, arg); ok {
		return t, nil
	}
	return types.Token{}, fmt.Errorf("token '%s' not found in the verified list", arg)
}
