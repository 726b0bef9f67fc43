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

	"solswap/pkg/ledger"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Check the status of a broadcast transaction",
	Long: `Look a transaction up by signature and report its commitment level.

Examples:
  solswap status 5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7
  solswap status <signature> --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	signature := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchStatus {
		watchTxStatus(a, signature, jsonOutput)
	} else {
		checkTxStatus(a, signature, jsonOutput)
	}
}

func checkTxStatus(a *app, signature string, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := a.ledger.SignatureStatus(context.Background(), signature)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		out := map[string]interface{}{
			"signature":           signature,
			"slot":                status.Slot,
			"confirmation_status": status.ConfirmationStatus,
		}
		if status.Err != nil {
			out["error"] = status.Err.Error()
		}
		jsonData, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTxStatus(status, signature)
	}
}

func watchTxStatus(a *app, signature string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(signature))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayTxStatus(a, signature)

	// Then check periodically
	for range ticker.C {
		checkAndDisplayTxStatus(a, signature)
	}
}

func checkAndDisplayTxStatus(a *app, signature string) {
	status, err := a.ledger.SignatureStatus(context.Background(), signature)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}

	displayTxStatus(status, signature)
}

func displayTxStatus(status *ledger.TxStatus, signature string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature:   %s\n", color.CyanString(signature))
	fmt.Printf("  Slot:        %d\n", status.Slot)
	fmt.Printf("  Commitment:  %s\n", coloredCommitment(status.ConfirmationStatus))

	if status.Confirmations != nil {
		fmt.Printf("  Confirmations: %d\n", *status.Confirmations)
	}
	if status.Err != nil {
		fmt.Printf("  On-chain error: %s\n", color.RedString(status.Err.Error()))
	}
	fmt.Printf("\n  Explorer:    https://solscan.io/tx/%s\n", signature)

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredCommitment(status string) string {
	switch strings.ToLower(status) {
	case "finalized":
		return color.GreenString(strings.ToUpper(status))
	case "confirmed":
		return color.GreenString(strings.ToUpper(status))
	case "processed":
		return color.YellowString(strings.ToUpper(status))
	default:
		return strings.ToUpper(status)
	}
}
