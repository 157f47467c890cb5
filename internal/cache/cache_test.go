package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookdesk/internal/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "bookdesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SessionRoundTrip(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_, err := c.LoadSession(ctx)
	require.ErrorIs(t, err, ErrNotCached)

	user := models.User{ID: "u1", Name: "Ayşe Demir", Email: "ayse@example.com", Role: models.RoleLibrarian}
	require.NoError(t, c.SaveSession(ctx, "token-123", user))

	got, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-123", got.Token)
	assert.Equal(t, user, got.User)

	require.NoError(t, c.ClearSession(ctx))
	_, err = c.LoadSession(ctx)
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestCache_BooksSnapshot(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	_, err := c.LoadBooks(ctx)
	require.ErrorIs(t, err, ErrNotCached)

	books := []models.Book{
		{ID: "b1", Title: "Kürk Mantolu Madonna", Author: "Sabahattin Ali", Quantity: 2, Status: models.StatusAvailable},
		{ID: "b2", Title: "Solaris", Quantity: 0, Status: models.StatusAvailable},
	}
	require.NoError(t, c.SaveBooks(ctx, books))

	got, err := c.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, books, got)

	// A second save replaces the snapshot.
	require.NoError(t, c.SaveBooks(ctx, books[:1]))
	got, err = c.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCache_BorrowLists(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	active := []models.Borrow{{ID: "br1", DueDate: due, Status: models.BorrowActive}}
	require.NoError(t, c.SaveBorrows(ctx, ActiveList, active))

	got, err := c.LoadBorrows(ctx, ActiveList)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].DueDate.Equal(due))

	// Lists are independent keys.
	_, err = c.LoadBorrows(ctx, OverdueList)
	assert.ErrorIs(t, err, ErrNotCached)
}
