package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"solswap/pkg/parser"
	"solswap/pkg/swap"
)

var (
	swapSlippage float64
	noConfirm    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens through the Jupiter aggregator",
	Long: `Swap SPL tokens: fetch a fresh quote, build the transaction through
the aggregator, sign it with the configured wallet, broadcast it with
preflight skipped, and wait for confirmed commitment.

A signing key is required. Set SOLSWAP_PRIVATE_KEY (Base58) in the
environment or a .env file.

Examples:
  solswap swap 1.5 SOL to USDC
  solswap swap 100 USDC to BONK --slippage 0.5
  solswap swap 1 SOL to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().Float64Var(&swapSlippage, "slippage", 0, "Slippage tolerance in percent (default from config)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	req, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()
	orch := a.orchestrator()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Fetching quote..."
	s.Start()

	sess, err := driveQuote(ctx, a, orch, req, swapSlippage)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if sess.Quote == nil {
		printError(fmt.Errorf("no route available for %s %s to %s", req.Amount, req.SourceSymbol, req.DestSymbol))
		os.Exit(1)
	}

	displayQuote(sess)
	fmt.Printf("  Wallet:    %s\n", walletLine(a))
	fmt.Printf("  Balance:   %f %s\n", sess.Balance, sess.Source.Symbol)

	if sess.Phase != swap.PhaseReady {
		// Let Execute surface the specific precondition notification.
		_ = orch.Execute(ctx)
		os.Exit(1)
	}

	if !noConfirm && !confirmSwap() {
		fmt.Println("\nSwap cancelled.")
		os.Exit(0)
	}

	s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Submitting swap..."
	s.Start()

	err = orch.Execute(ctx)
	s.Stop()

	if err != nil {
		os.Exit(1)
	}

	final := orch.Snapshot()
	fmt.Println("\nYou can check the transaction status using:")
	color.Cyan("  solswap status %s\n", final.LastSignature)
}

func walletLine(a *app) string {
	if !a.wallet.Connected() {
		return color.RedString("not connected (set SOLSWAP_PRIVATE_KEY)")
	}
	return color.CyanString(a.wallet.PublicKey().String())
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
