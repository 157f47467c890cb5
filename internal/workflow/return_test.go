package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bookdesk/internal/api"
	"bookdesk/internal/api/stubs"
	"bookdesk/internal/models"
	"bookdesk/internal/store"
)

// lendOne opens a loan in the stub library and returns it.
func lendOne(t *testing.T, lib *stubs.Library, due time.Time) models.Borrow {
	t.Helper()
	ctx := context.Background()

	user, err := lib.FindUserByEmail(ctx, "ayse@example.com")
	require.NoError(t, err)
	books, err := lib.ListBooks(ctx)
	require.NoError(t, err)

	var bookID string
	for _, b := range books {
		if b.Lendable() {
			bookID = b.ID
			break
		}
	}
	require.NotEmpty(t, bookID, "seed data must contain a lendable book")

	borrow, err := lib.Lend(ctx, user.ID, bookID, due)
	require.NoError(t, err)
	return borrow
}

func TestReturnFlow_HappyPath(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(lib, st, zap.NewNop())
	ctx := context.Background()

	loan := lendOne(t, lib, time.Now().AddDate(0, 0, 14))

	borrows, err := flow.Load(ctx, false)
	require.NoError(t, err)
	require.Len(t, borrows, 1)
	require.Len(t, st.ActiveBorrows(), 1)

	require.NoError(t, flow.Select(borrows[0]))
	require.NoError(t, flow.SetCondition(models.ConditionDamaged))
	flow.SetNotes("torn cover")

	returned, err := flow.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, loan.ID, returned.ID)
	assert.Equal(t, models.ConditionDamaged, returned.Condition)
	assert.Equal(t, "torn cover", returned.Notes)
	assert.Equal(t, models.BorrowReturned, returned.Status)

	// The loan leaves the shared list and the form resets.
	assert.Empty(t, st.ActiveBorrows())
	assert.Nil(t, flow.Selected())
}

func TestReturnFlow_ConditionDefaultsToGood(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(lib, st, zap.NewNop())
	ctx := context.Background()

	lendOne(t, lib, time.Now().AddDate(0, 0, 14))
	borrows, err := flow.Load(ctx, false)
	require.NoError(t, err)
	require.NoError(t, flow.Select(borrows[0]))

	returned, err := flow.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ConditionGood, returned.Condition)
	assert.Empty(t, returned.Notes)
}

type failingReturn struct {
	api.Service
}

func (failingReturn) Return(ctx context.Context, borrowID string, condition models.Condition, notes string) (models.Borrow, error) {
	return models.Borrow{}, &api.RemoteError{Message: "Return service is temporarily unavailable", StatusCode: 503}
}

func TestReturnFlow_FailedConfirmPreservesSelection(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(failingReturn{Service: lib}, st, zap.NewNop())
	ctx := context.Background()

	lendOne(t, lib, time.Now().AddDate(0, 0, 14))
	borrows, err := flow.Load(ctx, false)
	require.NoError(t, err)
	require.NoError(t, flow.Select(borrows[0]))
	flow.SetNotes("water damage")

	_, err = flow.Confirm(ctx)
	var remote *api.RemoteError
	require.ErrorAs(t, err, &remote)

	// Selection and list both survive, so the operator can retry.
	require.NotNil(t, flow.Selected())
	assert.Equal(t, borrows[0].ID, flow.Selected().ID)
	assert.Len(t, st.ActiveBorrows(), 1)
}

func TestReturnFlow_SelectRejectsClosedLoan(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(lib, st, zap.NewNop())

	returnDate := time.Now()
	err := flow.Select(models.Borrow{ID: "br1", Status: models.BorrowReturned, ReturnDate: &returnDate})
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Nil(t, flow.Selected())
}

func TestReturnFlow_ConfirmWithoutSelection(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(lib, st, zap.NewNop())

	_, err := flow.Confirm(context.Background())
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
}

func TestReturnFlow_OverdueFilter(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(lib, st, zap.NewNop())

	now := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	flow.SetNow(func() time.Time { return now })

	borrows := []models.Borrow{
		{ID: "br1", DueDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Status: models.BorrowActive},
		{ID: "br2", DueDate: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), Status: models.BorrowActive},
	}

	overdue := flow.Overdue(borrows)
	require.Len(t, overdue, 1)
	assert.Equal(t, "br1", overdue[0].ID)
}

func TestReturnFlow_LoadOverdueOnly(t *testing.T) {
	lib := seededLibrary(t)
	st := store.New(zap.NewNop())
	flow := NewReturnFlow(lib, st, zap.NewNop())
	ctx := context.Background()

	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	lendOne(t, lib, due)
	lib.SetNow(func() time.Time { return due.AddDate(0, 0, 5) })

	borrows, err := flow.Load(ctx, true)
	require.NoError(t, err)
	require.Len(t, borrows, 1)
	assert.Len(t, st.OverdueBorrows(), 1)
}
