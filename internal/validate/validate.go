// Package validate holds the local form invariants the client enforces
// before a request is allowed to leave the device. Violations block
// submission and are shown inline per field.
package validate

import (
	"fmt"
	"strings"
	"time"

	"bookdesk/internal/models"
)

// FieldError reports a single failed form invariant.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NormalizeISBN strips separators and whitespace from an ISBN and
// returns the bare digit string. A trailing X check digit is accepted
// on 10-digit ISBNs.
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// ISBN checks that the value normalizes to 10 or 13 digits.
func ISBN(isbn string) error {
	n := NormalizeISBN(isbn)
	if len(n) != 10 && len(n) != 13 {
		return &FieldError{Field: "isbn", Reason: "must be 10 or 13 digits"}
	}
	if strings.Contains(n[:len(n)-1], "X") || (len(n) == 13 && strings.HasSuffix(n, "X")) {
		return &FieldError{Field: "isbn", Reason: "must be 10 or 13 digits"}
	}
	return nil
}

// PublishYear checks the year is plausible: 1000 up to the current
// year at the given instant.
func PublishYear(year int, now time.Time) error {
	if year < 1000 || year > now.Year() {
		return &FieldError{Field: "publishYear", Reason: fmt.Sprintf("must be between 1000 and %d", now.Year())}
	}
	return nil
}

// Email performs a shape check only; the server owns real address
// verification.
func Email(email string) error {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return &FieldError{Field: "email", Reason: "not a valid email address"}
	}
	return nil
}

// PasswordPair checks a password and its confirmation field.
func PasswordPair(password, confirm string) error {
	if len(password) < 6 {
		return &FieldError{Field: "password", Reason: "must be at least 6 characters"}
	}
	if password != confirm {
		return &FieldError{Field: "passwordConfirm", Reason: "passwords do not match"}
	}
	return nil
}

// Book checks the local invariants of a catalog entry before it is
// sent to the server.
func Book(b models.Book, now time.Time) error {
	if strings.TrimSpace(b.Title) == "" {
		return &FieldError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(b.Author) == "" {
		return &FieldError{Field: "author", Reason: "must not be empty"}
	}
	if strings.TrimSpace(b.Category) == "" {
		return &FieldError{Field: "category", Reason: "must not be empty"}
	}
	if err := ISBN(b.ISBN); err != nil {
		return err
	}
	if err := PublishYear(b.PublishYear, now); err != nil {
		return err
	}
	if b.Quantity < 0 {
		return &FieldError{Field: "quantity", Reason: "must not be negative"}
	}
	if b.Status != "" && !b.Status.Valid() {
		return &FieldError{Field: "status", Reason: "unknown status"}
	}
	return nil
}

// DueDate checks an operator-chosen due date: any date on or after
// today, compared at day granularity so "today" itself is accepted.
func DueDate(due, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if due.Before(today) {
		return &FieldError{Field: "dueDate", Reason: "must be today or later"}
	}
	return nil
}
