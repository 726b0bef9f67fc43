package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var balanceOwner string

var balanceCmd = &cobra.Command{
	Use:   "balance <token>",
	Short: "Show a wallet's balance of a token",
	Long: `Read the associated token account for the configured wallet (or an
explicit owner) and print the balance. A missing token account reads
as a zero balance.

Examples:
  solswap balance USDC
  solswap balance SOL --owner 7fUAJdStEuGbc3sM84cKRL6yauaTJQef3P6o3fYVmcSo`,
	Args: cobra.ExactArgs(1),
	Run:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&balanceOwner, "owner", "", "Owner public key (defaults to the configured wallet)")
}

func runBalance(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	owner, err := resolveOwner(a)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking balance..."
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

	balance, err := a.ledger.TokenBalance(ctx, owner, token)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]interface{}{
			"owner":   owner.String(),
			"symbol":  token.Symbol,
			"address": token.Address,
			"balance": balance,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  Owner:   %s\n", color.CyanString(owner.String()))
	fmt.Printf("  Balance: %s %s\n\n",
		color.GreenString("%f", balance),
		color.YellowString(token.Symbol))
}

func resolveOwner(a *app) (solana.PublicKey, error) {
	if balanceOwner != "" {
		owner, err := solana.PublicKeyFromBase58(balanceOwner)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid owner public key: %w", err)
		}
		return owner, nil
	}
	if !a.wallet.Connected() {
		return solana.PublicKey{}, fmt.Errorf("no wallet configured. Set SOLSWAP_PRIVATE_KEY or pass --owner")
	}
	return a.wallet.PublicKey(), nil
}
