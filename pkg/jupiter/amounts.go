package jupiter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"solswap/pkg/types"
)

// stableOverride pins display precision for mints whose catalog decimals
// field disagrees with the canonical on-chain value. Matching requires BOTH
// the symbol and the address prefix; the prefix covers the mainnet canonical
// mint only (EPjFW... for USDC) and must not be generalized.
type stableOverride struct {
	symbol        string
	addressPrefix string
	decimals      int
}

var stableOverrides = []stableOverride{
	{symbol: "USDC", addressPrefix: "EPj", decimals: 6},
	{symbol: "USDT", addressPrefix: "EPj", decimals: 6},
}

// DisplayDecimals returns the precision used to render output amounts of t.
func DisplayDecimals(t types.Token) int {
	for _, o := range stableOverrides {
		if t.Symbol == o.symbol && strings.HasPrefix(t.Address, o.addressPrefix) {
			return o.decimals
		}
	}
	return t.Decimals
}

// ToSmallestUnit converts a decimal amount string into integer smallest
// units of a token with the given precision, truncating toward zero.
func ToSmallestUnit(amount string, decimals int) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative, got %s", amount)
	}

	shifted := d.Shift(int32(decimals)).Truncate(0)
	big := shifted.BigInt()
	if !big.IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds the %d-decimal integer range", amount, decimals)
	}
	return big.Uint64(), nil
}

// SlippageBps converts a slippage tolerance in percent to basis points,
// rounding to the nearest integer.
func SlippageBps(pct float64) uint64 {
	bps := decimal.NewFromFloat(pct).Shift(2).Round(0).IntPart()
	if bps < 0 {
		return 0
	}
	return uint64(bps)
}

// FormatOutAmount renders a raw output unit amount in whole tokens of dest,
// always with six fractional digits.
func FormatOutAmount(raw uint64, dest types.Token) string {
	v := decimal.NewFromUint64(raw).Shift(int32(-DisplayDecimals(dest)))
	return v.StringFixed(6)
}
