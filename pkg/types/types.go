package types

import "encoding/json"

// Token describes one entry of the verified token list.
// The catalog is fetched once per session and treated as read-only.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// Same reports whether two tokens refer to the same mint.
func (t Token) Same(other Token) bool {
	return t.Address == other.Address
}

// Quote is a point-in-time priced route between two tokens.
// Raw carries the aggregator payload untouched; it is round-tripped into the
// swap-build request exactly as received, so a quote must never be edited.
type Quote struct {
	InputMint  string
	OutputMint string
	InAmount   uint64 // smallest units of the source token
	OutAmount  uint64 // smallest units of the destination token
	Raw        json.RawMessage
}
