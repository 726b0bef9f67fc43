package swap

import "solswap/pkg/types"

// Phase is the orchestrator's position in the swap lifecycle.
type Phase int

const (
	// PhaseIdle means no usable token pair is selected.
	PhaseIdle Phase = iota
	// PhaseQuoting means a pair is selected and a quote is pending or held
	// without the preconditions to execute.
	PhaseQuoting
	// PhaseReady means a quote is held, the wallet is connected, and the
	// balance covers the entered amount.
	PhaseReady
	// PhaseSubmitting means a swap attempt is in flight.
	PhaseSubmitting
	// PhaseConfirmed is the terminal state of a successful attempt.
	PhaseConfirmed
	// PhaseFailed is the terminal state of a failed attempt.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseQuoting:
		return "quoting"
	case PhaseReady:
		return "ready-to-swap"
	case PhaseSubmitting:
		return "submitting"
	case PhaseConfirmed:
		return "confirmed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the mutable swap state. It is owned exclusively by the
// Orchestrator; everything outside reads copies taken via Snapshot.
type Session struct {
	Tokens        []types.Token
	Source        *types.Token
	Dest          *types.Token
	Amount        string // user-entered decimal amount of the source token
	Slippage      float64
	Quote         *types.Quote
	OutAmount     string // derived from Quote, never cached independently
	SourceUSD     *float64
	DestUSD       *float64
	Balance       float64 // observed source-token balance in whole tokens
	Phase         Phase
	LastSignature string
}

// clone copies the session so callers cannot alias orchestrator-owned state.
func (s Session) clone() Session {
	out := s
	if s.Source != nil {
		src := *s.Source
		out.Source = &src
	}
	if s.Dest != nil {
		dst := *s.Dest
		out.Dest = &dst
	}
	if s.SourceUSD != nil {
		v := *s.SourceUSD
		out.SourceUSD = &v
	}
	if s.DestUSD != nil {
		v := *s.DestUSD
		out.DestUSD = &v
	}
	if s.Quote != nil {
		q := *s.Quote
		out.Quote = &q
	}
	return out
}
