package core

import (
	"errors"
	"strings"
)

// Kind classifies a domain failure independently of its message.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindForbidden              Kind = "forbidden"
	KindTypeMismatch           Kind = "type_mismatch"
	KindInvalidTransactionType Kind = "invalid_transaction_type"
	KindDuplicateUsername      Kind = "duplicate_username"
	KindInvalidCredentials     Kind = "invalid_credentials"
	KindValidation             Kind = "validation"
	KindUnauthenticated        Kind = "unauthenticated"
)

const (
	MsgCategoryNotFound       = "Specified category not found"
	MsgTransactionNotFound    = "Specified transaction not found"
	MsgUserNotFound           = "Specified user not found"
	MsgRoleNotFound           = "Provided role does not exist"
	MsgCategoryForbidden      = "Current user does not own this category"
	MsgTransactionForbidden   = "Current user does not own this transaction"
	MsgTypeMismatch           = "Transaction type does not match category type"
	MsgInvalidTransactionType = "Specified transaction type does not exist"
	MsgDuplicateUsername      = "Provided username is already registered"
	MsgInvalidPassword        = "Provided password is invalid"
	MsgValidation             = "Validation errors have occurred"
	MsgUnauthenticated        = "Authentication is required"
	MsgInsufficientScope      = "Current user is not allowed to perform this operation"
)

// Field validation messages.
const (
	MsgCategoryNameRequired    = "Category name is required"
	MsgTransactionTypeRequired = "Transaction type is required"
	MsgTitleRequired           = "Title is required"
	MsgAmountRequired          = "Amount is required"
	MsgUsernameRequired        = "Username is required"
	MsgPasswordRequired        = "Password is required"
	MsgPasswordTooLong         = "Password must be at most 72 bytes"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var ErrInvalidAmount = errors.New("invalid amount")

// Error is a domain failure surfaced to callers as-is.
type Error struct {
	Kind    Kind
	Message string
	// Errors lists every violated field for KindValidation.
	Errors []string
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k})
// works without comparing messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a domain failure of kind k.
func IsKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func ErrCategoryNotFound() *Error    { return newError(KindNotFound, MsgCategoryNotFound) }
func ErrTransactionNotFound() *Error { return newError(KindNotFound, MsgTransactionNotFound) }
func ErrUserNotFound() *Error        { return newError(KindNotFound, MsgUserNotFound) }
func ErrRoleNotFound() *Error        { return newError(KindNotFound, MsgRoleNotFound) }

func ErrCategoryForbidden() *Error    { return newError(KindForbidden, MsgCategoryForbidden) }
func ErrTransactionForbidden() *Error { return newError(KindForbidden, MsgTransactionForbidden) }
func ErrInsufficientScope() *Error    { return newError(KindForbidden, MsgInsufficientScope) }

func ErrTypeMismatch() *Error { return newError(KindTypeMismatch, MsgTypeMismatch) }

func ErrInvalidTransactionType() *Error {
	return newError(KindInvalidTransactionType, MsgInvalidTransactionType)
}

func ErrDuplicateUsername() *Error { return newError(KindDuplicateUsername, MsgDuplicateUsername) }
func ErrInvalidPassword() *Error   { return newError(KindInvalidCredentials, MsgInvalidPassword) }
func ErrUnauthenticated() *Error   { return newError(KindUnauthenticated, MsgUnauthenticated) }

// Validation accumulates field violations into a single failure.
type Validation struct {
	errs []string
}

// Require records msg when cond is false.
func (v *Validation) Require(cond bool, msg string) {
	if !cond {
		v.errs = append(v.errs, msg)
	}
}

// Err returns nil when nothing was recorded.
func (v *Validation) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: MsgValidation, Errors: append([]string(nil), v.errs...)}
}
