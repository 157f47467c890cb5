// Package workflow drives the scan-driven lend and return flows a
// librarian walks through. Each flow is a small state machine: scans
// arrive as opaque strings, the QR codec classifies them, and exactly
// one remote call leaves the device per confirm action.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookdesk/internal/api"
	"bookdesk/internal/models"
	"bookdesk/internal/qr"
	"bookdesk/internal/validate"
)

// DefaultLoanDays is the due-date offset applied when the operator
// does not pick one.
const DefaultLoanDays = 14

// LendState names the position of the lend flow. The state is derived
// from the slots, never stored separately, so it cannot drift.
type LendState string

const (
	LendIdle            LendState = "idle"
	LendScanningForUser LendState = "scanning_for_user"
	LendUserResolved    LendState = "user_resolved"
	LendScanningForBook LendState = "scanning_for_book"
	LendBookResolved    LendState = "book_resolved"
	LendReadyToConfirm  LendState = "ready_to_confirm"
	LendSubmitting      LendState = "submitting"
)

// ScanTarget is what the next scan is expected to identify.
type ScanTarget string

const (
	TargetNone ScanTarget = ""
	TargetUser ScanTarget = "user"
	TargetBook ScanTarget = "book"
)

// SelectedBook is the lend flow's book slot: the identity accepted
// from a scanned payload, pending server confirmation at lend time.
type SelectedBook struct {
	ID     string
	Title  string
	Author string
}

// LendFlow is the two-slot selection-then-confirm state machine for
// lending a book. The user and book slots are independent: clearing or
// replacing one never touches the other.
type LendFlow struct {
	mu     sync.Mutex
	remote api.Service
	logger *zap.Logger
	now    func() time.Time

	scanningFor ScanTarget
	user        *models.User
	book        *SelectedBook
	dueDate     time.Time // zero until the operator overrides the default
	submitting  bool
}

// NewLendFlow creates an idle lend flow on the real clock.
func NewLendFlow(remote api.Service, logger *zap.Logger) *LendFlow {
	return &LendFlow{remote: remote, logger: logger, now: time.Now}
}

// SetNow overrides the clock for deterministic tests.
func (f *LendFlow) SetNow(now func() time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// State derives the named flow state from the slots.
func (f *LendFlow) State() LendState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *LendFlow) stateLocked() LendState {
	switch {
	case f.submitting:
		return LendSubmitting
	case f.user != nil && f.book != nil:
		return LendReadyToConfirm
	case f.scanningFor == TargetUser:
		return LendScanningForUser
	case f.scanningFor == TargetBook:
		return LendScanningForBook
	case f.book != nil:
		return LendBookResolved
	case f.user != nil:
		return LendUserResolved
	}
	return LendIdle
}

// StartUserScan arms the flow to treat the next scan as an identity
// payload.
func (f *LendFlow) StartUserScan() {
	f.mu.Lock()
	f.scanningFor = TargetUser
	f.mu.Unlock()
}

// StartBookScan arms the flow to treat the next scan as a book
// payload.
func (f *LendFlow) StartBookScan() {
	f.mu.Lock()
	f.scanningFor = TargetBook
	f.mu.Unlock()
}

// HandleScan consumes one raw scan string for whichever slot the flow
// was armed for. Decode and shape failures both come back wrapping
// ErrInvalidScan; a non-lendable book comes back as *NotAvailableError
// and leaves the flow scanning.
func (f *LendFlow) HandleScan(ctx context.Context, raw string) error {
	f.mu.Lock()
	target := f.scanningFor
	f.mu.Unlock()

	if target == TargetNone {
		return &StateError{Op: "scan", Reason: "flow is not scanning"}
	}

	payload, err := qr.ParsePayload(raw)
	if err != nil {
		f.logger.Warn("Scan rejected", zap.String("target", string(target)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidScan, err)
	}

	switch target {
	case TargetUser:
		return f.resolveUser(ctx, payload)
	case TargetBook:
		return f.resolveBook(payload)
	}
	return &StateError{Op: "scan", Reason: "flow is not scanning"}
}

// resolveUser resolves a scanned identity to the canonical account by
// email. The id embedded in the payload is never trusted: the payload
// may be stale or reused across registrations.
func (f *LendFlow) resolveUser(ctx context.Context, payload qr.Payload) error {
	up, ok := payload.(qr.UserPayload)
	if !ok {
		return fmt.Errorf("%w: expected a user code", ErrInvalidScan)
	}

	user, err := f.remote.FindUserByEmail(ctx, up.Email)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.user = &user
	f.scanningFor = TargetNone
	f.mu.Unlock()

	f.logger.Info("User resolved", zap.String("user_id", user.ID), zap.String("name", user.Name))
	return nil
}

// resolveBook accepts a scanned book only when its embedded status is
// available. The embedded status is a hint; the server re-checks at
// lend time.
func (f *LendFlow) resolveBook(payload qr.Payload) error {
	bp, ok := payload.(qr.BookPayload)
	if !ok {
		return fmt.Errorf("%w: expected a book code", ErrInvalidScan)
	}

	if bp.Status != models.StatusAvailable {
		return &NotAvailableError{Title: bp.Title, Status: bp.Status}
	}

	f.mu.Lock()
	f.book = &SelectedBook{ID: bp.ID, Title: bp.Title, Author: bp.Author}
	f.scanningFor = TargetNone
	f.mu.Unlock()

	f.logger.Info("Book resolved", zap.String("book_id", bp.ID), zap.String("title", bp.Title))
	return nil
}

// ClearUser empties the user slot; the book slot is untouched.
func (f *LendFlow) ClearUser() {
	f.mu.Lock()
	f.user = nil
	f.mu.Unlock()
}

// ClearBook empties the book slot; the user slot is untouched.
func (f *LendFlow) ClearBook() {
	f.mu.Lock()
	f.book = nil
	f.mu.Unlock()
}

// User returns the resolved user slot, nil when empty.
func (f *LendFlow) User() *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return nil
	}
	u := *f.user
	return &u
}

// Book returns the resolved book slot, nil when empty.
func (f *LendFlow) Book() *SelectedBook {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.book == nil {
		return nil
	}
	b := *f.book
	return &b
}

// SetDueDate overrides the default due date. Any date from today on is
// accepted.
func (f *LendFlow) SetDueDate(due time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := validate.DueDate(due, f.now()); err != nil {
		return err
	}
	f.dueDate = due
	return nil
}

// DueDate returns the effective due date: the operator's override when
// one was set, otherwise DefaultLoanDays from now.
func (f *LendFlow) DueDate() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dueDateLocked()
}

func (f *LendFlow) dueDateLocked() time.Time {
	if !f.dueDate.IsZero() {
		return f.dueDate
	}
	return f.now().AddDate(0, 0, DefaultLoanDays)
}

// Ready reports whether both slots are filled and the due date is
// valid, the precondition for Confirm.
func (f *LendFlow) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readyLocked()
}

func (f *LendFlow) readyLocked() bool {
	if f.user == nil || f.book == nil {
		return false
	}
	return validate.DueDate(f.dueDateLocked(), f.now()) == nil
}

// Confirm issues exactly one remote lend request. On success both
// slots clear and the flow returns to idle; on failure the slots are
// preserved so the operator can retry without re-scanning.
func (f *LendFlow) Confirm(ctx context.Context) (models.Borrow, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return models.Borrow{}, &StateError{Op: "confirm lend", Reason: "a request is already in flight"}
	}
	if !f.readyLocked() {
		f.mu.Unlock()
		return models.Borrow{}, &StateError{Op: "confirm lend", Reason: "user, book, and a valid due date are required"}
	}
	userID := f.user.ID
	bookID := f.book.ID
	due := f.dueDateLocked()
	f.submitting = true
	f.mu.Unlock()

	borrow, err := f.remote.Lend(ctx, userID, bookID, due)

	f.mu.Lock()
	f.submitting = false
	if err == nil {
		f.user = nil
		f.book = nil
		f.dueDate = time.Time{}
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("Lend failed", zap.String("book_id", bookID), zap.Error(err))
		return models.Borrow{}, err
	}

	f.logger.Info("Book lent",
		zap.String("borrow_id", borrow.ID),
		zap.String("book_id", bookID),
		zap.String("user_id", userID),
		zap.Time("due_date", due),
	)
	return borrow, nil
}

// UserMessage maps a flow error to the line the operator sees.
func UserMessage(err error) string {
	var notAvailable *NotAvailableError
	var remote *api.RemoteError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrScanIgnored):
		return ""
	case errors.As(err, &notAvailable):
		return "This book cannot be lent right now"
	case errors.Is(err, ErrInvalidScan):
		return "Could not read the QR code. Please scan a valid code."
	case errors.As(err, &remote):
		return remote.Message
	}
	return err.Error()
}
