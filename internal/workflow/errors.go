package workflow

import (
	"errors"
	"fmt"

	"bookdesk/internal/models"
)

// ErrInvalidScan is the single operator-facing signal for a scan that
// produced no usable record: bad Base64, bad UTF-8, bad JSON, or a
// payload missing required fields. The operator's remedy is the same
// in every case (rescan), so the flow does not distinguish them.
var ErrInvalidScan = errors.New("invalid QR code")

// ErrScanIgnored reports a scan delivered while the scanner gate was
// already closed. It carries no state change and needs no display.
var ErrScanIgnored = errors.New("scan ignored: code already processed")

// NotAvailableError reports a book payload that decoded cleanly but is
// not in a lendable state. Deliberately distinct from ErrInvalidScan:
// rescanning the same book will not help.
type NotAvailableError struct {
	Title  string
	Status models.BookStatus
}

func (e *NotAvailableError) Error() string {
	return fmt.Sprintf("%q cannot be lent right now (status %s)", e.Title, e.Status)
}

// StateError reports an operation attempted from a state that does not
// permit it, such as confirming a lend with an empty slot.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
