// Package swaperr classifies collaborator failures so callers can decide
// between degrading silently and notifying the user.
package swaperr

import (
	"errors"
	"fmt"
)

// Kind tells the caller what went wrong at a collaborator boundary.
type Kind int

const (
	// KindUnknown covers failures with no better classification.
	KindUnknown Kind = iota
	// KindNetwork is a transport-level failure (timeout, refused, 5xx).
	KindNetwork
	// KindDecode is a malformed or unexpected response payload.
	KindDecode
	// KindNotFound is a missing resource (token account, price entry).
	KindNotFound
	// KindUnavailable is a quote/route that could not be produced.
	KindUnavailable
	// KindRejected is a signing refusal or a transaction error on-chain.
	KindRejected
	// KindTimeout is a confirmation that never arrived within the
	// transaction's validity window.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindNotFound:
		return "not-found"
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error pairs a failure kind with the operation that produced it.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with an operation name and failure kind.
func New(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
