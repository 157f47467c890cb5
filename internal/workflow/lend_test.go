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
	"bookdesk/internal/qr"
)

func seededLibrary(t *testing.T) *stubs.Library {
	t.Helper()
	lib := stubs.NewLibrary()
	lib.Seed()
	return lib
}

func bookScan(t *testing.T, book models.Book) string {
	t.Helper()
	raw, err := qr.EncodeBook(book)
	require.NoError(t, err)
	return raw
}

func userScan(t *testing.T, user models.User) string {
	t.Helper()
	raw, err := qr.EncodeUser(user)
	require.NoError(t, err)
	return raw
}

func TestLendFlow_HappyPath(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())
	ctx := context.Background()

	require.Equal(t, LendIdle, flow.State())

	flow.StartUserScan()
	require.Equal(t, LendScanningForUser, flow.State())
	err := flow.HandleScan(ctx, userScan(t, models.User{Name: "Ayşe Demir", Email: "ayse@example.com"}))
	require.NoError(t, err)
	require.Equal(t, LendUserResolved, flow.State())

	flow.StartBookScan()
	require.Equal(t, LendScanningForBook, flow.State())
	err = flow.HandleScan(ctx, bookScan(t, models.Book{
		ID: "book-1", Title: "Kürk Mantolu Madonna", Author: "Sabahattin Ali", Status: models.StatusAvailable,
	}))
	require.NoError(t, err)
	require.Equal(t, LendReadyToConfirm, flow.State())
	require.True(t, flow.Ready())

	borrow, err := flow.Confirm(ctx)
	require.NoError(t, err)
	assert.Equal(t, "book-1", borrow.BookID)
	assert.Equal(t, models.BorrowActive, borrow.Status)

	// Success drains both slots and the flow starts over.
	assert.Equal(t, LendIdle, flow.State())
	assert.Nil(t, flow.User())
	assert.Nil(t, flow.Book())
}

func TestLendFlow_ScannedUserResolvedByEmailNotPayloadID(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())

	flow.StartUserScan()
	// The payload claims a bogus id; only the email may be trusted.
	err := flow.HandleScan(context.Background(), userScan(t, models.User{
		ID: "forged-id", Name: "Ayşe Demir", Email: "ayse@example.com",
	}))
	require.NoError(t, err)

	user := flow.User()
	require.NotNil(t, user)
	assert.NotEqual(t, "forged-id", user.ID)
	assert.Equal(t, "ayse@example.com", user.Email)
}

func TestLendFlow_UnavailableBookNeverFillsSlot(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())

	flow.StartBookScan()
	err := flow.HandleScan(context.Background(), bookScan(t, models.Book{
		ID: "book-3", Title: "İnce Memed", Status: models.StatusBorrowed,
	}))

	var notAvailable *NotAvailableError
	require.ErrorAs(t, err, &notAvailable)
	assert.Equal(t, "İnce Memed", notAvailable.Title)

	// The flow keeps scanning; the slot stays empty.
	assert.Equal(t, LendScanningForBook, flow.State())
	assert.Nil(t, flow.Book())
}

func TestLendFlow_InvalidScanSignals(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())
	ctx := context.Background()

	flow.StartBookScan()

	for _, raw := range []string{
		"not-base64!!",
		"aGVsbG8=", // valid base64, not JSON
	} {
		err := flow.HandleScan(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidScan, "raw %q", raw)
	}
	assert.Equal(t, LendScanningForBook, flow.State())

	// A user code scanned while waiting for a book is invalid too.
	err := flow.HandleScan(ctx, userScan(t, models.User{Name: "Ayşe Demir", Email: "ayse@example.com"}))
	assert.ErrorIs(t, err, ErrInvalidScan)
	assert.Nil(t, flow.Book())
}

func TestLendFlow_SlotsAreIndependent(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())
	ctx := context.Background()

	flow.StartUserScan()
	require.NoError(t, flow.HandleScan(ctx, userScan(t, models.User{Name: "Ayşe Demir", Email: "ayse@example.com"})))
	flow.StartBookScan()
	require.NoError(t, flow.HandleScan(ctx, bookScan(t, models.Book{
		ID: "book-2", Title: "The Left Hand of Darkness", Status: models.StatusAvailable,
	})))
	require.Equal(t, LendReadyToConfirm, flow.State())

	flow.ClearBook()
	assert.Nil(t, flow.Book())
	assert.NotNil(t, flow.User(), "clearing the book slot must not touch the user slot")
	assert.Equal(t, LendUserResolved, flow.State())

	flow.ClearUser()
	assert.Equal(t, LendIdle, flow.State())
}

func TestLendFlow_DefaultDueDateIsFourteenDaysOut(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())

	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	flow.SetNow(func() time.Time { return now })

	want := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.True(t, flow.DueDate().Equal(want), "DueDate() = %v, want %v", flow.DueDate(), want)
}

func TestLendFlow_DueDateOverride(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	flow.SetNow(func() time.Time { return now })

	// Yesterday is rejected, today and later are accepted.
	assert.Error(t, flow.SetDueDate(now.AddDate(0, 0, -1)))

	today := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, flow.SetDueDate(today))
	require.NoError(t, flow.SetDueDate(now.AddDate(0, 0, 30)))
	assert.True(t, flow.DueDate().Equal(now.AddDate(0, 0, 30)))
}

func TestLendFlow_ConfirmRequiresBothSlots(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(lib, zap.NewNop())
	ctx := context.Background()

	_, err := flow.Confirm(ctx)
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)

	flow.StartUserScan()
	require.NoError(t, flow.HandleScan(ctx, userScan(t, models.User{Name: "Ayşe Demir", Email: "ayse@example.com"})))
	require.False(t, flow.Ready())

	_, err = flow.Confirm(ctx)
	require.ErrorAs(t, err, &stateErr)
}

type failingLend struct {
	api.Service
}

func (failingLend) Lend(ctx context.Context, userID, bookID string, dueDate time.Time) (models.Borrow, error) {
	return models.Borrow{}, &api.RemoteError{Message: "Lending service is temporarily unavailable", StatusCode: 503}
}

func TestLendFlow_FailedConfirmPreservesSlots(t *testing.T) {
	lib := seededLibrary(t)
	flow := NewLendFlow(failingLend{Service: lib}, zap.NewNop())
	ctx := context.Background()

	flow.StartUserScan()
	require.NoError(t, flow.HandleScan(ctx, userScan(t, models.User{Name: "Ayşe Demir", Email: "ayse@example.com"})))
	flow.StartBookScan()
	require.NoError(t, flow.HandleScan(ctx, bookScan(t, models.Book{
		ID: "book-1", Title: "Kürk Mantolu Madonna", Status: models.StatusAvailable,
	})))

	_, err := flow.Confirm(ctx)
	var remote *api.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Lending service is temporarily unavailable", remote.Message)

	// The operator retries without re-scanning.
	assert.NotNil(t, flow.User())
	assert.NotNil(t, flow.Book())
	assert.Equal(t, LendReadyToConfirm, flow.State())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"ignored scan is silent", ErrScanIgnored, ""},
		{"not available", &NotAvailableError{Title: "Dune", Status: models.StatusBorrowed}, "This book cannot be lent right now"},
		{"invalid scan", ErrInvalidScan, "Could not read the QR code. Please scan a valid code."},
		{"remote message verbatim", &api.RemoteError{Message: "User not found"}, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
