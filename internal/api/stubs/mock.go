// Package stubs provides an in-memory implementation of api.Service
// for tests and the dev sandbox. It mimics the server's observable
// behavior: quantity bookkeeping on lend/return, lookup by email, and
// message-bearing errors.
package stubs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookdesk/internal/api"
	"bookdesk/internal/models"
)

// Library is a fake remote library service.
type Library struct {
	mu      sync.RWMutex
	nowFn   func() time.Time
	nextID  int
	books   map[string]models.Book
	users   map[string]models.User // keyed by email
	borrows map[string]models.Borrow
}

var _ api.Service = (*Library)(nil)

// NewLibrary creates an empty fake service using the real clock.
func NewLibrary() *Library {
	return &Library{
		nowFn:   time.Now,
		books:   make(map[string]models.Book),
		users:   make(map[string]models.User),
		borrows: make(map[string]models.Borrow),
	}
}

// SetNow overrides the clock for deterministic tests.
func (l *Library) SetNow(nowFn func() time.Time) {
	l.mu.Lock()
	l.nowFn = nowFn
	l.mu.Unlock()
}

// Seed installs a handful of books and users so the sandbox has
// something to show.
func (l *Library) Seed() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range []models.Book{
		{Title: "Kürk Mantolu Madonna", Author: "Sabahattin Ali", ISBN: "9789753638029", PublishYear: 1943, Category: "Novel", Quantity: 2, Status: models.StatusAvailable},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", ISBN: "9780441478125", PublishYear: 1969, Category: "Science Fiction", Quantity: 1, Status: models.StatusAvailable},
		{Title: "İnce Memed", Author: "Yaşar Kemal", ISBN: "9789750806546", PublishYear: 1955, Category: "Novel", Quantity: 0, Status: models.StatusBorrowed},
	} {
		b.ID = l.newID("book")
		l.books[b.ID] = b
	}

	for _, u := range []models.User{
		{Name: "Ayşe Demir", Email: "ayse@example.com", Role: models.RoleUser},
		{Name: "Mehmet Kaya", Email: "mehmet@example.com", Role: models.RoleUser},
		{Name: "Head Librarian", Email: "librarian@example.com", Role: models.RoleLibrarian},
	} {
		u.ID = l.newID("user")
		l.users[u.Email] = u
	}
}

func (l *Library) newID(prefix string) string {
	l.nextID++
	return fmt.Sprintf("%s-%d", prefix, l.nextID)
}

func (l *Library) Login(ctx context.Context, email, password string, role models.Role) (api.Credentials, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	user, ok := l.users[email]
	if !ok || user.Role != role {
		return api.Credentials{}, &api.RemoteError{Message: "Invalid email or password", StatusCode: 401}
	}
	return api.Credentials{Token: "stub-token-" + user.ID, User: user}, nil
}

func (l *Library) Register(ctx context.Context, name, email, password string, role models.Role) (models.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.users[email]; exists {
		return models.User{}, &api.RemoteError{Message: "An account with this email already exists", StatusCode: 409}
	}
	user := models.User{ID: l.newID("user"), Name: name, Email: email, Role: role}
	l.users[email] = user
	return user, nil
}

func (l *Library) ListBooks(ctx context.Context) ([]models.Book, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	books := make([]models.Book, 0, len(l.books))
	for _, b := range l.books {
		books = append(books, b)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (l *Library) AddBook(ctx context.Context, book models.Book) (models.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, existing := range l.books {
		if existing.ISBN == book.ISBN {
			return models.Book{}, &api.RemoteError{Message: "A book with this ISBN already exists", StatusCode: 409}
		}
	}
	book.ID = l.newID("book")
	if book.Status == "" {
		book.Status = models.StatusAvailable
	}
	l.books[book.ID] = book
	return book, nil
}

func (l *Library) UpdateBook(ctx context.Context, id string, book models.Book) (models.Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.books[id]; !ok {
		return models.Book{}, &api.RemoteError{Message: "Book not found", StatusCode: 404}
	}
	book.ID = id
	l.books[id] = book
	return book, nil
}

func (l *Library) DeleteBook(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.books[id]; !ok {
		return &api.RemoteError{Message: "Book not found", StatusCode: 404}
	}
	delete(l.books, id)
	return nil
}

func (l *Library) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	user, ok := l.users[email]
	if !ok {
		return models.User{}, &api.RemoteError{Message: "User not found", StatusCode: 404}
	}
	return user, nil
}

func (l *Library) Lend(ctx context.Context, userID, bookID string, dueDate time.Time) (models.Borrow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	book, ok := l.books[bookID]
	if !ok {
		return models.Borrow{}, &api.RemoteError{Message: "Book not found", StatusCode: 404}
	}
	if !book.Lendable() {
		return models.Borrow{}, &api.RemoteError{Message: "This book is not available for lending", StatusCode: 409}
	}

	var user models.User
	found := false
	for _, u := range l.users {
		if u.ID == userID {
			user, found = u, true
			break
		}
	}
	if !found {
		return models.Borrow{}, &api.RemoteError{Message: "User not found", StatusCode: 404}
	}

	now := l.nowFn()
	borrow := models.Borrow{
		ID:         l.newID("borrow"),
		BookID:     book.ID,
		BookTitle:  book.Title,
		BookAuthor: book.Author,
		BookISBN:   book.ISBN,
		UserID:     user.ID,
		UserName:   user.Name,
		UserEmail:  user.Email,
		BorrowDate: now,
		DueDate:    dueDate,
		Status:     models.BorrowActive,
	}
	l.borrows[borrow.ID] = borrow

	book.Quantity--
	if book.Quantity == 0 {
		book.Status = models.StatusBorrowed
	}
	l.books[book.ID] = book

	return borrow, nil
}

func (l *Library) Return(ctx context.Context, borrowID string, condition models.Condition, notes string) (models.Borrow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	borrow, ok := l.borrows[borrowID]
	if !ok {
		return models.Borrow{}, &api.RemoteError{Message: "Borrow record not found", StatusCode: 404}
	}
	if borrow.Returned() {
		return models.Borrow{}, &api.RemoteError{Message: "This book has already been returned", StatusCode: 409}
	}

	now := l.nowFn()
	borrow.ReturnDate = &now
	borrow.Status = models.BorrowReturned
	borrow.Condition = condition
	borrow.Notes = notes
	l.borrows[borrowID] = borrow

	if book, ok := l.books[borrow.BookID]; ok {
		book.Quantity++
		book.Status = models.StatusAvailable
		l.books[book.ID] = book
	}

	return borrow, nil
}

func (l *Library) Extend(ctx context.Context, borrowID string, newDueDate time.Time) (models.Borrow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	borrow, ok := l.borrows[borrowID]
	if !ok {
		return models.Borrow{}, &api.RemoteError{Message: "Borrow record not found", StatusCode: 404}
	}
	if borrow.Returned() {
		return models.Borrow{}, &api.RemoteError{Message: "Cannot extend a returned loan", StatusCode: 409}
	}
	borrow.DueDate = newDueDate
	l.borrows[borrowID] = borrow
	return borrow, nil
}

func (l *Library) ActiveBorrows(ctx context.Context) ([]models.Borrow, error) {
	return l.listBorrows(func(b models.Borrow) bool { return !b.Returned() })
}

func (l *Library) OverdueBorrows(ctx context.Context) ([]models.Borrow, error) {
	l.mu.RLock()
	now := l.nowFn()
	l.mu.RUnlock()
	return l.listBorrows(func(b models.Borrow) bool { return b.OverdueAt(now) })
}

func (l *Library) MyBorrows(ctx context.Context) ([]models.Borrow, error) {
	// The stub has no authenticated caller; everything active belongs
	// to the sandbox user.
	return l.listBorrows(func(b models.Borrow) bool { return true })
}

func (l *Library) listBorrows(keep func(models.Borrow) bool) ([]models.Borrow, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.Borrow
	for _, b := range l.borrows {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
