package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// Request is a parsed swap phrase.
type Request struct {
	Amount       string
	SourceSymbol string
	DestSymbol   string
}

var swapPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 SOL to USDC"
//   - "1.5 SOL to USDC"
//   - "100 USDC to BONK"
func ParseSwapCommand(command string) (*Request, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	// Pattern: <amount> <source_token> TO <dest_token>
	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g., '1.5 SOL to USDC')")
	}

	return &Request{
		Amount:       matches[1],
		SourceSymbol: matches[2],
		DestSymbol:   matches[3],
	}, nil
}
