package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "solswap",
	Short: "A CLI for token swaps on Solana using the Jupiter aggregator",
	Long: `solswap is a command-line tool for swapping SPL tokens through the
Jupiter quote aggregator. It fetches priced routes, builds the swap
transaction through the aggregator, signs it with a local key, and
broadcasts it to the Solana network.

Examples:
  solswap swap 1.5 SOL to USDC
  solswap quote 1 SOL to USDC --slippage 0.5
  solswap tokens --symbol USDC
  solswap price SOL
  solswap balance USDC
  solswap status <signature>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

// toastNotifier renders orchestrator notifications the way the rest of the
// CLI prints: transient lines, colored by severity.
type toastNotifier struct{}

func (toastNotifier) Success(msg string) { color.Green("\n%s\n", msg) }
func (toastNotifier) Error(msg string)   { color.Red("\n%s\n", msg) }
