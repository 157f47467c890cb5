// Package qr implements the transport encoding used to put book and
// user records into a scannable 2D barcode: canonical JSON, treated as
// UTF-8 bytes, wrapped in standard padded Base64. The codec is pure;
// it never touches the network or storage.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"bookdesk/internal/models"
)

// Encode serializes v to JSON and Base64-encodes the UTF-8 byte
// sequence of that text. Non-ASCII titles and author names are routine
// in this domain, so the encoding must go through bytes, never through
// UTF-16 code units.
func Encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode inverts Encode exactly: Base64-decode to bytes, require valid
// UTF-8, JSON-parse into v. Any failure yields a *DecodeError and
// leaves v untouched; a partial or guessed record is never returned.
func Decode(payload string, v any) error {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return &DecodeError{Reason: "invalid base64", Err: err}
	}
	if !utf8.Valid(data) {
		return &DecodeError{Reason: "payload is not valid UTF-8"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &DecodeError{Reason: "invalid JSON", Err: err}
	}
	return nil
}

// BookPayload is the subset of a catalog entry embedded in a book QR
// code. Status is the stored status at encode time and may be stale by
// the time the code is scanned.
type BookPayload struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Author      string            `json:"author,omitempty"`
	ISBN        string            `json:"isbn,omitempty"`
	PublishYear int               `json:"publishYear,omitempty"`
	Category    string            `json:"category,omitempty"`
	Status      models.BookStatus `json:"status"`
}

// UserPayload is the subset of an account embedded in an identity QR
// code. The workflow resolves the authoritative user by email; an id
// embedded here is display-only and never trusted.
type UserPayload struct {
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role,omitempty"`
}

// Payload is the tagged union produced by ParsePayload.
type Payload interface {
	payloadKind() string
}

func (BookPayload) payloadKind() string { return "book" }
func (UserPayload) payloadKind() string { return "user" }

// EncodeBook builds the scannable payload for a catalog entry.
func EncodeBook(b models.Book) (string, error) {
	return Encode(BookPayload{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		PublishYear: b.PublishYear,
		Category:    b.Category,
		Status:      b.Status,
	})
}

// EncodeUser builds the scannable identity payload for an account.
func EncodeUser(u models.User) (string, error) {
	return Encode(UserPayload{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// ParsePayload decodes a raw scan string and classifies it as a book
// or user payload by its required fields: id+title+status for a book,
// email+name for a user. A payload that decodes but fits neither shape
// yields a *ShapeError; the operator remedy (rescan) is the same as
// for a malformed code, so the workflow collapses both to one signal.
func ParsePayload(raw string) (Payload, error) {
	var fields map[string]any
	if err := Decode(raw, &fields); err != nil {
		return nil, err
	}

	str := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}

	if str("email") != "" && str("name") != "" {
		return UserPayload{
			ID:    str("id"),
			Name:  str("name"),
			Email: str("email"),
			Role:  models.Role(str("role")),
		}, nil
	}

	if str("id") != "" && str("title") != "" && str("status") != "" {
		year := 0
		if f, ok := fields["publishYear"].(float64); ok {
			year = int(f)
		}
		return BookPayload{
			ID:          str("id"),
			Title:       str("title"),
			Author:      str("author"),
			ISBN:        str("isbn"),
			PublishYear: year,
			Category:    str("category"),
			Status:      models.BookStatus(str("status")),
		}, nil
	}

	return nil, &ShapeError{Missing: missingFields(fields)}
}

// missingFields names what would be needed to complete the closest
// shape, for logging only; the operator just sees "invalid QR code".
func missingFields(fields map[string]any) []string {
	var missing []string
	for _, key := range []string{"email", "name", "id", "title", "status"} {
		if s, _ := fields[key].(string); s == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
