package models

import (
	"errors"
	"fmt"
)

var (
	ErrorValidationFailed    = errors.New("validation_failed")
	ErrorOrderNotFound       = errors.New("order_not_found")
	ErrorComponentNotFound   = errors.New("component_not_found")
	ErrorUnknownStatus       = errors.New("unknown_status")
	ErrorDbTransactionFailed = errors.New("db_transaction_failed")
	ErrorDispatchFailed      = errors.New("dispatch_failed")
	ErrorSweepInProgress     = errors.New("sweep_in_progress")
)

// TransitionRefusedError is returned when a guarded or illegal transition is
// attempted. The entity is left untouched.
type TransitionRefusedError struct {
	Kind   EntityKind
	ID     string
	From   string
	To     string
	Reason string
}

func (e *TransitionRefusedError) Error() string {
	return fmt.Sprintf("transition refused for %s %s: %s -> %s: %s",
		e.Kind, e.ID, e.From, e.To, e.Reason)
}

// IsTransitionRefused reports whether err is a TransitionRefusedError.
func IsTransitionRefused(err error) bool {
	var refused *TransitionRefusedError
	return errors.As(err, &refused)
}
