package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"solswap/pkg/types"
)

var (
	filterSymbol string
	tokenLimit   int
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the verified swappable tokens",
	Long: `List the verified token catalog served by the aggregator.

Examples:
  solswap tokens
  solswap tokens --symbol USDC
  solswap tokens --limit 50`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().IntVar(&tokenLimit, "limit", 100, "Maximum number of tokens to display (0 = all)")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching verified tokens..."
		s.Start()
	}

	tokens, err := a.tokens.Load(context.Background())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Apply filters
	filtered := tokens
	if filterSymbol != "" {
		var temp []types.Token
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if tokenLimit > 0 && len(filtered) > tokenLimit {
		filtered = filtered[:tokenLimit]
	}

	// Output
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered, len(tokens))
	}
}

func displayTokens(tokens []types.Token, total int) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              VERIFIED TOKENS")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, token := range tokens {
		address := token.Address
		if len(address) > 44 {
			address = address[:41] + "..."
		}

		name := token.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}

		fmt.Printf("  %-10s  %2d decimals  %-44s  %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address),
			name)
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nShowing %d of %d verified tokens\n\n", len(tokens), total)
}
