package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookdesk/internal/api"
	"bookdesk/internal/models"
	"bookdesk/internal/store"
	"bookdesk/internal/validate"
)

// ReturnFlow is the list-then-confirm state machine for receiving a
// book back: pick an active loan, rate its condition, confirm. The
// active list lives in the shared store so other screens see the
// removal on success.
type ReturnFlow struct {
	mu     sync.Mutex
	remote api.Service
	state  *store.Store
	logger *zap.Logger
	now    func() time.Time

	selected   *models.Borrow
	condition  models.Condition
	notes      string
	submitting bool
}

// NewReturnFlow creates a return flow with the default condition
// rating.
func NewReturnFlow(remote api.Service, state *store.Store, logger *zap.Logger) *ReturnFlow {
	return &ReturnFlow{
		remote:    remote,
		state:     state,
		logger:    logger,
		now:       time.Now,
		condition: models.ConditionGood,
	}
}

// SetNow overrides the clock for deterministic tests.
func (f *ReturnFlow) SetNow(now func() time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// Load fetches the active loans (optionally only those past due) and
// publishes them through the store's pending/fulfilled/rejected
// transitions.
func (f *ReturnFlow) Load(ctx context.Context, overdueOnly bool) ([]models.Borrow, error) {
	f.state.BorrowsPending()

	var borrows []models.Borrow
	var err error
	if overdueOnly {
		borrows, err = f.remote.OverdueBorrows(ctx)
	} else {
		borrows, err = f.remote.ActiveBorrows(ctx)
	}
	if err != nil {
		f.state.BorrowsRejected(UserMessage(err))
		return nil, err
	}

	if overdueOnly {
		f.state.OverdueFulfilled(borrows)
	} else {
		f.state.ActiveFulfilled(borrows)
	}
	return borrows, nil
}

// Select picks the loan to receive. The loan must be open.
func (f *ReturnFlow) Select(borrow models.Borrow) error {
	if borrow.Returned() {
		return &StateError{Op: "select loan", Reason: "loan is already returned"}
	}

	f.mu.Lock()
	f.selected = &borrow
	f.condition = models.ConditionGood
	f.notes = ""
	f.mu.Unlock()
	return nil
}

// Clear drops the selection and resets the form.
func (f *ReturnFlow) Clear() {
	f.mu.Lock()
	f.selected = nil
	f.condition = models.ConditionGood
	f.notes = ""
	f.mu.Unlock()
}

// Selected returns the loan being received, nil when none.
func (f *ReturnFlow) Selected() *models.Borrow {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		return nil
	}
	b := *f.selected
	return &b
}

// SetCondition records the operator's rating of the returned copy.
func (f *ReturnFlow) SetCondition(c models.Condition) error {
	if !c.Valid() {
		return &validate.FieldError{Field: "condition", Reason: "unknown condition rating"}
	}
	f.mu.Lock()
	f.condition = c
	f.mu.Unlock()
	return nil
}

// SetNotes records free-text notes captured at return time.
func (f *ReturnFlow) SetNotes(notes string) {
	f.mu.Lock()
	f.notes = notes
	f.mu.Unlock()
}

// Confirm issues exactly one remote return request. On success the
// loan leaves the store's active and overdue lists and the selection
// clears; on failure the selection and lists are untouched so the
// operator can retry.
func (f *ReturnFlow) Confirm(ctx context.Context) (models.Borrow, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return models.Borrow{}, &StateError{Op: "confirm return", Reason: "a request is already in flight"}
	}
	if f.selected == nil {
		f.mu.Unlock()
		return models.Borrow{}, &StateError{Op: "confirm return", Reason: "no loan selected"}
	}
	borrowID := f.selected.ID
	condition := f.condition
	notes := f.notes
	f.submitting = true
	f.mu.Unlock()

	returned, err := f.remote.Return(ctx, borrowID, condition, notes)

	f.mu.Lock()
	f.submitting = false
	if err == nil {
		f.selected = nil
		f.condition = models.ConditionGood
		f.notes = ""
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("Return failed", zap.String("borrow_id", borrowID), zap.Error(err))
		return models.Borrow{}, err
	}

	f.state.BorrowClosed(borrowID)
	f.logger.Info("Book received",
		zap.String("borrow_id", borrowID),
		zap.String("condition", string(condition)),
	)
	return returned, nil
}

// Overdue filters a borrow list down to the loans past due at the
// flow's current clock.
func (f *ReturnFlow) Overdue(borrows []models.Borrow) []models.Borrow {
	f.mu.Lock()
	now := f.now()
	f.mu.Unlock()

	var out []models.Borrow
	for _, b := range borrows {
		if b.OverdueAt(now) {
			out = append(out, b)
		}
	}
	return out
}
