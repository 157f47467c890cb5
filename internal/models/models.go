package models

import "time"

// BookStatus is the stored availability state of a catalog entry.
// It is server-authoritative: the client never changes it except by
// replacing the whole Book from a confirmed server response.
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusBorrowed  BookStatus = "borrowed"
	StatusReserved  BookStatus = "reserved"
)

// Label returns the display label for a book status. The switch is
// exhaustive over the closed enum so a new status is a compile-visible
// change site.
func (s BookStatus) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusBorrowed:
		return "Borrowed"
	case StatusReserved:
		return "Reserved"
	}
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s BookStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBorrowed, StatusReserved:
		return true
	}
	return false
}

// Book represents a catalog entry in the remote library.
type Book struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	ISBN        string     `json:"isbn"`
	PublishYear int        `json:"publishYear"`
	Category    string     `json:"category"`
	Quantity    int        `json:"quantity"`
	Status      BookStatus `json:"status"`
	ImageURL    string     `json:"imageUrl,omitempty"`
}

// EffectiveStatus is the displayed availability state. A book with no
// copies left displays as borrowed regardless of the stored status.
func (b Book) EffectiveStatus() BookStatus {
	if b.Quantity == 0 {
		return StatusBorrowed
	}
	return b.Status
}

// Lendable reports whether the book can enter a lend transaction.
func (b Book) Lendable() bool {
	return b.EffectiveStatus() == StatusAvailable
}

// Role is the kind of account a user holds.
type Role string

const (
	RoleLibrarian Role = "librarian"
	RoleUser      Role = "user"
)

// User identifies an account. It carries no secret material; the
// client uses it for display and as a server-side lookup key only.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// BorrowStatus is the lifecycle state of a loan as reported by the
// server. Overdue is derived from the clock, never stored.
type BorrowStatus string

const (
	BorrowActive   BorrowStatus = "active"
	BorrowReturned BorrowStatus = "returned"
	BorrowOverdue  BorrowStatus = "overdue"
)

// Condition rates the physical state of a book at return time.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
	ConditionDamaged   Condition = "damaged"
)

// Valid reports whether c is one of the known condition ratings.
func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged:
		return true
	}
	return false
}

// Conditions lists the ratings in selection order.
func Conditions() []Condition {
	return []Condition{ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor, ConditionDamaged}
}

// Borrow is one lend-to-return transaction on one book copy by one
// user. Book and user fields are snapshots taken at lend time so the
// record stays readable after later catalog edits.
type Borrow struct {
	ID         string       `json:"id"`
	BookID     string       `json:"bookId"`
	BookTitle  string       `json:"bookTitle"`
	BookAuthor string       `json:"bookAuthor"`
	BookISBN   string       `json:"bookIsbn"`
	UserID     string       `json:"userId"`
	UserName   string       `json:"userName"`
	UserEmail  string       `json:"userEmail"`
	BorrowDate time.Time    `json:"borrowDate"`
	DueDate    time.Time    `json:"dueDate"`
	ReturnDate *time.Time   `json:"returnDate,omitempty"`
	Status     BorrowStatus `json:"status"`
	Condition  Condition    `json:"condition,omitempty"`
	Notes      string       `json:"notes,omitempty"`
}

// Returned reports whether the loan is closed. A returned borrow is
// terminal and immutable.
func (b Borrow) Returned() bool {
	return b.Status == BorrowReturned || b.ReturnDate != nil
}

// OverdueAt reports whether the loan is past due at the given instant.
// Overdue is a pure clock comparison while the loan is still open.
func (b Borrow) OverdueAt(now time.Time) bool {
	if b.Returned() {
		return false
	}
	return b.DueDate.Before(now)
}

// EffectiveStatus resolves the displayed lifecycle state at the given
// instant, folding the derived overdue state in.
func (b Borrow) EffectiveStatus(now time.Time) BorrowStatus {
	if b.Returned() {
		return BorrowReturned
	}
	if b.OverdueAt(now) {
		return BorrowOverdue
	}
	return BorrowActive
}

// RemainingDays is the number of whole days until the due date,
// negative once the loan is overdue.
func (b Borrow) RemainingDays(now time.Time) int {
	return int(b.DueDate.Sub(now).Hours() / 24)
}
