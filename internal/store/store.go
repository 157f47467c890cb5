// Package store keeps the client's shared view of the remote catalog
// and loan lists in one explicit state struct. Every remote-call
// lifecycle is a trio of transition methods (pending / fulfilled /
// rejected) so state changes are always named, never ambient.
//
// Status and quantity fields inside the stored records are
// server-authoritative: the only writes are wholesale replacements
// from confirmed responses.
package store

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"bookdesk/internal/models"
)

// Store is the application state shared across screens.
type Store struct {
	mu     sync.RWMutex
	logger *zap.Logger

	books        []models.Book
	booksLoading bool
	booksError   string

	active         []models.Borrow
	overdue        []models.Borrow
	myBorrows      []models.Borrow
	borrowsLoading bool
	borrowsError   string
}

// New creates an empty store.
func New(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// ---------------------------------------------------------------------------
// Catalog lifecycle
// ---------------------------------------------------------------------------

// BooksPending marks a catalog fetch as in flight.
func (s *Store) BooksPending() {
	s.mu.Lock()
	s.booksLoading = true
	s.booksError = ""
	s.mu.Unlock()
}

// BooksFulfilled replaces the catalog with a confirmed server response.
func (s *Store) BooksFulfilled(books []models.Book) {
	s.mu.Lock()
	s.books = append([]models.Book(nil), books...)
	s.booksLoading = false
	s.booksError = ""
	s.mu.Unlock()
	s.logger.Debug("Catalog replaced", zap.Int("count", len(books)))
}

// BooksRejected records a failed catalog fetch; the previous catalog
// stays visible.
func (s *Store) BooksRejected(message string) {
	s.mu.Lock()
	s.booksLoading = false
	s.booksError = message
	s.mu.Unlock()
}

// BookAdded appends a newly created catalog entry.
func (s *Store) BookAdded(book models.Book) {
	s.mu.Lock()
	s.books = append(s.books, book)
	s.mu.Unlock()
}

// BookUpdated replaces the matching catalog entry, if present.
func (s *Store) BookUpdated(book models.Book) {
	s.mu.Lock()
	for i := range s.books {
		if s.books[i].ID == book.ID {
			s.books[i] = book
			break
		}
	}
	s.mu.Unlock()
}

// BookDeleted drops the matching catalog entry.
func (s *Store) BookDeleted(id string) {
	s.mu.Lock()
	kept := s.books[:0]
	for _, b := range s.books {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	s.books = kept
	s.mu.Unlock()
}

// Books returns a copy of the catalog.
func (s *Store) Books() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Book(nil), s.books...)
}

// BooksState returns the catalog fetch state for rendering.
func (s *Store) BooksState() (loading bool, errMessage string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.booksLoading, s.booksError
}

// FindBook looks a catalog entry up by id.
func (s *Store) FindBook(id string) (models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.books {
		if b.ID == id {
			return b, true
		}
	}
	return models.Book{}, false
}

// ---------------------------------------------------------------------------
// Borrow lifecycle
// ---------------------------------------------------------------------------

// BorrowsPending marks a borrow-list fetch as in flight.
func (s *Store) BorrowsPending() {
	s.mu.Lock()
	s.borrowsLoading = true
	s.borrowsError = ""
	s.mu.Unlock()
}

// ActiveFulfilled replaces the active-loan list.
func (s *Store) ActiveFulfilled(borrows []models.Borrow) {
	s.mu.Lock()
	s.active = append([]models.Borrow(nil), borrows...)
	s.borrowsLoading = false
	s.borrowsError = ""
	s.mu.Unlock()
}

// OverdueFulfilled replaces the overdue-loan list.
func (s *Store) OverdueFulfilled(borrows []models.Borrow) {
	s.mu.Lock()
	s.overdue = append([]models.Borrow(nil), borrows...)
	s.borrowsLoading = false
	s.borrowsError = ""
	s.mu.Unlock()
}

// MyBorrowsFulfilled replaces the logged-in user's own history.
func (s *Store) MyBorrowsFulfilled(borrows []models.Borrow) {
	s.mu.Lock()
	s.myBorrows = append([]models.Borrow(nil), borrows...)
	s.borrowsLoading = false
	s.borrowsError = ""
	s.mu.Unlock()
}

// BorrowsRejected records a failed borrow-list fetch.
func (s *Store) BorrowsRejected(message string) {
	s.mu.Lock()
	s.borrowsLoading = false
	s.borrowsError = message
	s.mu.Unlock()
}

// BorrowClosed removes a returned loan from the active and overdue
// lists after a confirmed return.
func (s *Store) BorrowClosed(borrowID string) {
	s.mu.Lock()
	s.active = dropBorrow(s.active, borrowID)
	s.overdue = dropBorrow(s.overdue, borrowID)
	s.mu.Unlock()
	s.logger.Debug("Borrow closed", zap.String("borrow_id", borrowID))
}

// BorrowExtended replaces a loan whose due date was pushed out.
func (s *Store) BorrowExtended(borrow models.Borrow) {
	s.mu.Lock()
	for i := range s.active {
		if s.active[i].ID == borrow.ID {
			s.active[i] = borrow
		}
	}
	// It may no longer be overdue with the new date.
	s.overdue = dropBorrow(s.overdue, borrow.ID)
	s.mu.Unlock()
}

func dropBorrow(borrows []models.Borrow, id string) []models.Borrow {
	kept := borrows[:0]
	for _, b := range borrows {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	return kept
}

// ActiveBorrows returns a copy of the active-loan list.
func (s *Store) ActiveBorrows() []models.Borrow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Borrow(nil), s.active...)
}

// OverdueBorrows returns a copy of the overdue-loan list.
func (s *Store) OverdueBorrows() []models.Borrow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Borrow(nil), s.overdue...)
}

// MyBorrows returns a copy of the user's own borrow history.
func (s *Store) MyBorrows() []models.Borrow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Borrow(nil), s.myBorrows...)
}

// BorrowsState returns the borrow fetch state for rendering.
func (s *Store) BorrowsState() (loading bool, errMessage string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.borrowsLoading, s.borrowsError
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// DashboardStats summarizes the catalog and loan lists for the
// librarian dashboard.
type DashboardStats struct {
	TotalBooks    int
	BorrowedBooks int
	ActiveLoans   int
	OverdueLoans  int
}

// Dashboard computes the dashboard counters at the given instant.
// Borrowed counts use the effective (displayed) status, so a book with
// zero copies counts as borrowed whatever its stored status says.
func (s *Store) Dashboard(now time.Time) DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := DashboardStats{TotalBooks: len(s.books), ActiveLoans: len(s.active)}
	for _, b := range s.books {
		if b.EffectiveStatus() == models.StatusBorrowed {
			stats.BorrowedBooks++
		}
	}
	for _, b := range s.active {
		if b.OverdueAt(now) {
			stats.OverdueLoans++
		}
	}
	return stats
}
