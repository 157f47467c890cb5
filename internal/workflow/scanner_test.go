package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_GateClosesAfterAccept(t *testing.T) {
	calls := 0
	s := NewScanner(func(ctx context.Context, raw string) error {
		calls++
		return nil
	})
	ctx := context.Background()

	require.NoError(t, s.Deliver(ctx, "frame-1"))
	require.True(t, s.Closed())

	// Rapid repeat frames of the same code must not dispatch again.
	for i := 0; i < 5; i++ {
		err := s.Deliver(ctx, "frame-1")
		assert.ErrorIs(t, err, ErrScanIgnored)
	}
	assert.Equal(t, 1, calls)
}

func TestScanner_RejectedScanKeepsGateOpen(t *testing.T) {
	bad := errors.New("unreadable")
	attempts := 0
	s := NewScanner(func(ctx context.Context, raw string) error {
		attempts++
		if attempts == 1 {
			return bad
		}
		return nil
	})
	ctx := context.Background()

	err := s.Deliver(ctx, "garbled")
	require.ErrorIs(t, err, bad)
	require.False(t, s.Closed(), "a rejected scan must leave the gate open")

	require.NoError(t, s.Deliver(ctx, "clean"))
	assert.True(t, s.Closed())
	assert.Equal(t, 2, attempts)
}

func TestScanner_ResetReopensGate(t *testing.T) {
	calls := 0
	s := NewScanner(func(ctx context.Context, raw string) error {
		calls++
		return nil
	})
	ctx := context.Background()

	require.NoError(t, s.Deliver(ctx, "first"))
	require.ErrorIs(t, s.Deliver(ctx, "second"), ErrScanIgnored)

	s.Reset()
	require.False(t, s.Closed())
	require.NoError(t, s.Deliver(ctx, "second"))
	assert.Equal(t, 2, calls)
}
