package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var priceCmd = &cobra.Command{
	Use:   "price <token>",
	Short: "Show the current USD price of a token",
	Long: `Look a token up in the verified catalog and print its current USD
unit price from the price oracle.

Examples:
  solswap price SOL
  solswap price EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v`,
	Args: cobra.ExactArgs(1),
	Run:  runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching price..."
		s.Start()
	}

	tokens, err := a.tokens.Load(ctx)
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		printError(err)
		os.Exit(1)
	}

	token, err := resolveToken(tokens, args[0])
	if err != nil {
		if !jsonOutput {
			s.Stop()
		}
		printError(err)
		os.Exit(1)
	}

	price, err := a.oracle.Price(ctx, token)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(fmt.Errorf("no price available for %s: %w", token.Symbol, err))
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"symbol":  token.Symbol,
			"address": token.Address,
			"usd":     price,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  1 %s = %s\n\n",
		color.YellowString(token.Symbol),
		color.GreenString("$%.6f", price))
}
