// Package errors defines the typed error kinds surfaced by the collector,
// following spec.md §7: Transport, Fault, Parse, Auth, Budget and Internal.
// Callers use errors.As to branch on kind instead of string matching.
package errors

import "fmt"

// TransportError wraps a TCP/TLS/HTTP failure from the SOAP transport.
type TransportError struct {
	URL string
	Err error
}

func NewTransportError(url string, err error) *TransportError {
	return &TransportError{URL: url, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error talking to %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FaultError carries a SOAP faultstring verbatim.
type FaultError struct {
	FaultString string
	FaultCause  any // the typed vim25/types.BaseMethodFault, when known
}

func NewFaultError(faultString string, cause any) *FaultError {
	return &FaultError{FaultString: faultString, FaultCause: cause}
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("soap fault: %s", e.FaultString)
}

// ParseError reports malformed XML or a missing element at a known path.
type ParseError struct {
	Path string
	Err  error
}

func NewParseError(path string, err error) *ParseError {
	return &ParseError{Path: path, Err: err}
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("parse error: missing element at %s", e.Path)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AuthError reports a login failure that is not a type-discovery fault.
type AuthError struct {
	URL string
	Err error
}

func NewAuthError(url string, err error) *AuthError {
	return &AuthError{URL: url, Err: err}
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.URL, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// BudgetError reports a batch sizing computation that came out zero or
// negative; the caller treats this as "skip this batch."
type BudgetError struct {
	Reason string
}

func NewBudgetError(reason string) *BudgetError {
	return &BudgetError{Reason: reason}
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("batch budget exhausted: %s", e.Reason)
}

// InternalError reports arena allocation exhaustion after a realloc
// attempt — fatal, the process cannot continue with partial state.
type InternalError struct {
	Reason string
}

func NewInternalError(reason string) *InternalError {
	return &InternalError{Reason: reason}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error (fatal): %s", e.Reason)
}
