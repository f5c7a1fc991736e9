package chain

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed contract call. Classification happens once,
// here at the gateway boundary, so callers can branch on the kind instead of
// matching message substrings.
type ErrorKind int

const (
	// KindTransient covers generic RPC and node errors that are worth retrying.
	KindTransient ErrorKind = iota
	// KindRejected means the caller or node refused to sign or accept the transaction.
	KindRejected
	// KindInsufficientFunds means the sender cannot pay for gas.
	KindInsufficientFunds
	// KindUnderfunded means the preflight balance check found the sender below
	// the operational floor before submission.
	KindUnderfunded
	// KindNonce means the transaction nonce conflicted with a pending or mined one.
	KindNonce
	// KindReverted means the contract rejected the call.
	KindReverted
	// KindUnknownMethod means the requested method is not part of the contract ABI.
	KindUnknownMethod
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejected:
		return "rejected"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindUnderfunded:
		return "underfunded sender"
	case KindNonce:
		return "nonce conflict"
	case KindReverted:
		return "reverted"
	case KindUnknownMethod:
		return "unknown method"
	}
	return "unknown"
}

// TransactionError is a terminally failed state-changing contract call.
type TransactionError struct {
	Kind   ErrorKind
	Method string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed (%s): %v", e.Method, e.Kind, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// NetworkError is a failure to reach or use the chain endpoint.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("chain network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// classify maps an error returned by the node into an ErrorKind. The node
// only exposes causes through message text, so the substring matching lives
// here and nowhere else.
func classify(err error) ErrorKind {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "user denied"), strings.Contains(msg, "transaction declined"):
		return KindRejected
	case strings.Contains(msg, "insufficient funds"):
		return KindInsufficientFunds
	case strings.Contains(msg, "nonce too low"), strings.Contains(msg, "nonce too high"),
		strings.Contains(msg, "replacement transaction underpriced"):
		return KindNonce
	case strings.Contains(msg, "revert"):
		return KindReverted
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "method not found"):
		return KindUnknownMethod
	}

	return KindTransient
}
