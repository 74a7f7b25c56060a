package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrConflict          = errors.New("conflicting ledger update")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("invalid payment status transition")

	// Gateway errors. Transient wraps network-level failures that are safe
	// to retry; Rejected means the gateway refused the payment outright.
	ErrGatewayMalformed = errors.New("malformed gateway response")
	ErrGatewayRejected  = errors.New("payment rejected by gateway")
	ErrGatewayTransient = errors.New("transient gateway error")

	// Repository plumbing errors
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// ValidationError reports which client-input field failed normalization.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid field %q", e.Field)
	}
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a client-input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransient reports whether err is worth retrying against the gateway.
func IsTransient(err error) bool {
	return errors.Is(err, ErrGatewayTransient)
}
