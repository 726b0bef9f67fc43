package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"solswap/pkg/parser"
	"solswap/pkg/swap"
)

var quoteSlippage float64

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Fetch a priced route without executing it",
	Long: `Fetch a quote for a token pair and amount, together with the USD
prices of both tokens.

Examples:
  solswap quote 1.5 SOL to USDC
  solswap quote 100 USDC to BONK --slippage 0.5`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Float64Var(&quoteSlippage, "slippage", 0, "Slippage tolerance in percent (default from config)")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

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
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	sess, err := driveQuote(ctx, a, orch, req, quoteSlippage)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if sess.Quote == nil {
		printError(fmt.Errorf("no route available for %s %s to %s", req.Amount, req.SourceSymbol, req.DestSymbol))
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"source_token": sess.Source.Symbol,
			"dest_token":   sess.Dest.Symbol,
			"in_amount":    sess.Amount,
			"out_amount":   sess.OutAmount,
			"slippage_pct": sess.Slippage,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuote(sess)
}

// driveQuote feeds one parsed request through the orchestrator and waits for
// every triggered fetch to settle.
func driveQuote(ctx context.Context, a *app, orch *swap.Orchestrator, req *parser.Request, slippage float64) (swap.Session, error) {
	orch.Init(ctx)

	sess := orch.Snapshot()
	if len(sess.Tokens) == 0 {
		return sess, fmt.Errorf("the verified token list is unavailable, try again later")
	}

	source, err := resolveToken(sess.Tokens, req.SourceSymbol)
	if err != nil {
		return sess, err
	}
	dest, err := resolveToken(sess.Tokens, req.DestSymbol)
	if err != nil {
		return sess, err
	}
	if source.Same(dest) {
		return sess, fmt.Errorf("source and destination must be different tokens")
	}

	if slippage == 0 {
		slippage = a.cfg.Slippage
	}
	if err := orch.SetSlippage(ctx, slippage); err != nil {
		return sess, err
	}

	orch.SetSource(ctx, source)
	orch.SetDest(ctx, dest)
	orch.SetAmount(ctx, req.Amount)
	orch.Wait()

	return orch.Snapshot(), nil
}

func displayQuote(sess swap.Session) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:      %s %s%s\n", sess.Amount, color.YellowString(sess.Source.Symbol), usdSuffix(sess.SourceUSD, sess.Amount))
	fmt.Printf("  To:        ~%s %s%s\n", sess.OutAmount, color.YellowString(sess.Dest.Symbol), usdSuffix(sess.DestUSD, sess.OutAmount))
	fmt.Printf("  Slippage:  %.2f%%\n", sess.Slippage)

	if rate, ok := exchangeRate(sess.Amount, sess.OutAmount); ok {
		fmt.Printf("  Rate:      1 %s = %s %s\n", sess.Source.Symbol, rate, sess.Dest.Symbol)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

// usdSuffix renders " (~$x)" when a USD unit price is known.
func usdSuffix(unitUSD *float64, amount string) string {
	if unitUSD == nil {
		return ""
	}
	amt, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return ""
	}
	return color.HiBlackString("  (~$%.2f)", amt*(*unitUSD))
}

func exchangeRate(inAmount, outAmount string) (string, bool) {
	in, err := strconv.ParseFloat(inAmount, 64)
	if err != nil || in == 0 {
		return "", false
	}
	out, err := strconv.ParseFloat(outAmount, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(out/in, 'f', 6, 64), true
}
