package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookdesk/internal/models"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_Lifecycle(t *testing.T) {
	s := New()
	assert.False(t, s.Active())
	assert.False(t, s.IsLibrarian())

	s.Establish("tok", models.User{ID: "u1", Name: "Ayşe", Role: models.RoleLibrarian})
	assert.True(t, s.Active())
	assert.True(t, s.IsLibrarian())
	assert.Equal(t, "tok", s.Token())

	s.Clear()
	assert.False(t, s.Active())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.User().ID)
}

func TestSession_ExpiresAt(t *testing.T) {
	s := New()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s.Establish(signedToken(t, exp), models.User{ID: "u1"})

	assert.True(t, s.ExpiresAt().Equal(exp))
	assert.False(t, s.ExpiredAt(exp.Add(-time.Minute)))
	assert.True(t, s.ExpiredAt(exp.Add(time.Minute)))
}

func TestSession_OpaqueTokenNeverExpiresLocally(t *testing.T) {
	s := New()
	s.Establish("not-a-jwt", models.User{ID: "u1"})

	assert.True(t, s.ExpiresAt().IsZero())
	assert.False(t, s.ExpiredAt(time.Now()), "opaque tokens are left to the server to reject")
}
