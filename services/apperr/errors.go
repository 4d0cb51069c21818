// Package apperr defines the typed error kinds used across the security
// and retrieval pipeline so handlers can map failures to the right HTTP
// status or SSE event without leaking internal detail to the client.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a class of error for dispatch purposes. Handlers switch
// on Kind rather than inspecting error strings.
type Kind string

const (
	KindSanitizerEmpty    Kind = "sanitizer_empty"
	KindMalicious         Kind = "classified_malicious"
	KindRetrievalMiss     Kind = "retrieval_miss"
	KindLLMTransient      Kind = "llm_transient"
	KindStreamClientAbort Kind = "stream_client_abort"
	KindOutputLeak        Kind = "output_leak"
	KindIngestion         Kind = "ingestion_error"
	KindInitFailure       Kind = "init_failure"
)

// Error wraps an underlying cause with a Kind so callers can use
// errors.As to recover the classification without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an *Error for op/kind, optionally wrapping cause.
func New(op string, kind Kind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// ErrServiceInitializing is returned by handlers while the ready future
// has not yet resolved.
var ErrServiceInitializing = New("service", KindInitFailure, errors.New("service initializing"))
