package token

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind tags a ledger failure.
type Kind int

const (
	KindNone Kind = iota
	KindInsufficientBalance
	KindContractPaused
	KindUnauthorized
	KindInvalidAmount
	KindInvalidRecipient
)

var kindNames = map[Kind]string{
	KindNone:                "none",
	KindInsufficientBalance: "insufficient_balance",
	KindContractPaused:      "contract_paused",
	KindUnauthorized:        "unauthorized",
	KindInvalidAmount:       "invalid_amount",
	KindInvalidRecipient:    "invalid_recipient",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindNone.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindNone
}

// Sentinels for errors.Is checks against a *Error.
var (
	ErrInsufficientBalance = &Error{Kind: KindInsufficientBalance}
	ErrContractPaused      = &Error{Kind: KindContractPaused}
	ErrUnauthorized        = &Error{Kind: KindUnauthorized}
	ErrInvalidAmount       = &Error{Kind: KindInvalidAmount}
	ErrInvalidRecipient    = &Error{Kind: KindInvalidRecipient}
)

// Error is the failure result of a ledger operation.
type Error struct {
	Kind    Kind
	Op      string
	Account common.Address
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String()
	}
	if e.Account == (common.Address{}) {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Account.Hex(), e.Kind)
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind carried by err, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

func fail(kind Kind, op string, account common.Address) error {
	return &Error{Kind: kind, Op: op, Account: account}
}
