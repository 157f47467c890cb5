// Package api is the client for the remote library-management HTTP
// service. Every call is a single best-effort request: no retries, no
// client-side timeout beyond the transport default. Server-reported
// error messages are surfaced verbatim; anything else gets a fixed
// fallback message.
package api

import (
	"context"
	"fmt"
	"time"

	"bookdesk/internal/models"
)

// Credentials is the result of a successful login.
type Credentials struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Service is the remote boundary the client code programs against.
// The HTTP client implements it; stubs.Library fakes it for tests and
// the dev sandbox.
type Service interface {
	// Auth
	Login(ctx context.Context, email, password string, role models.Role) (Credentials, error)
	Register(ctx context.Context, name, email, password string, role models.Role) (models.User, error)

	// Catalog
	ListBooks(ctx context.Context) ([]models.Book, error)
	AddBook(ctx context.Context, book models.Book) (models.Book, error)
	UpdateBook(ctx context.Context, id string, book models.Book) (models.Book, error)
	DeleteBook(ctx context.Context, id string) error

	// Loans
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	Lend(ctx context.Context, userID, bookID string, dueDate time.Time) (models.Borrow, error)
	Return(ctx context.Context, borrowID string, condition models.Condition, notes string) (models.Borrow, error)
	Extend(ctx context.Context, borrowID string, newDueDate time.Time) (models.Borrow, error)
	ActiveBorrows(ctx context.Context) ([]models.Borrow, error)
	OverdueBorrows(ctx context.Context) ([]models.Borrow, error)
	MyBorrows(ctx context.Context) ([]models.Borrow, error)
}

// FallbackMessage is shown when the server gave no usable error text.
const FallbackMessage = "The library service could not complete the request. Please try again."

// RemoteError is a failed remote call: a transport failure or a
// server-reported error. Message is always displayable.
type RemoteError struct {
	Message    string
	StatusCode int // 0 on transport failure
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote call failed (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote call failed: %s", e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }
