package recon

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownOrder marks a report for an untracked ClOrdID. The ledger
	// tolerates these by synthesizing a minimal order; the sentinel exists
	// for logging and tests, it is never returned from Apply.
	ErrUnknownOrder = errors.New("order not found")

	// ErrInvalidTransition marks a report whose status the lifecycle state
	// machine does not recognize. The event is logged and skipped.
	ErrInvalidTransition = errors.New("invalid order state transition")
)

// MissingFieldError reports required execution-report fields that were
// absent (or unusable) on an inbound message. The event is dropped; the
// counterparty is expected to resend a conformant report.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("execution report missing required fields: %s", strings.Join(e.Fields, ", "))
}
