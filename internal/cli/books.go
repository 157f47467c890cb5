package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookdesk/internal/cache"
	"bookdesk/internal/models"
	"bookdesk/internal/validate"
)

func newBooksCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalog",
	}
	cmd.AddCommand(
		newBooksListCmd(deps),
		newBooksAddCmd(deps),
		newBooksUpdateCmd(deps),
		newBooksDeleteCmd(deps),
	)
	return cmd
}

func newBooksListCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLogin(); err != nil {
				return err
			}

			deps.Store.BooksPending()
			books, err := deps.Remote.ListBooks(cmd.Context())
			if err != nil {
				deps.Store.BooksRejected(remoteMessage(err))

				// Fall back to the last snapshot so the desk still works
				// offline.
				cached, cacheErr := deps.Cache.LoadBooks(cmd.Context())
				if cacheErr != nil {
					if !errors.Is(cacheErr, cache.ErrNotCached) {
						deps.Logger.Warn("Failed to load cached catalog", zap.Error(cacheErr))
					}
					return fmt.Errorf("%s", remoteMessage(err))
				}
				fmt.Printf("Warning: %s (showing cached catalog)\n\n", remoteMessage(err))
				printBooks(cached)
				return nil
			}

			deps.Store.BooksFulfilled(books)
			if err := deps.Cache.SaveBooks(cmd.Context(), books); err != nil {
				deps.Logger.Warn("Failed to cache catalog", zap.Error(err))
			}

			printBooks(books)
			return nil
		},
	}
}

func printBooks(books []models.Book) {
	if len(books) == 0 {
		fmt.Println("No books in the catalog.")
		return
	}

	fmt.Printf("%-12s %-35s %-25s %-15s %-5s %-10s\n", "ID", "Title", "Author", "ISBN", "Qty", "Status")
	fmt.Println(strings.Repeat("-", 110))
	for _, b := range books {
		fmt.Printf("%-12s %-35s %-25s %-15s %-5d %-10s\n",
			truncate(b.ID, 12),
			truncate(b.Title, 35),
			truncate(b.Author, 25),
			b.ISBN,
			b.Quantity,
			b.EffectiveStatus().Label(),
		)
	}
}

// bookFlags binds the catalog entry fields shared by add and update.
type bookFlags struct {
	title    string
	author   string
	isbn     string
	year     int
	category string
	quantity int
	status   string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringVar(&f.author, "author", "", "author name")
	cmd.Flags().StringVar(&f.isbn, "isbn", "", "ISBN-10 or ISBN-13")
	cmd.Flags().IntVar(&f.year, "year", 0, "publish year")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().IntVar(&f.quantity, "quantity", 1, "copies on the shelf")
	cmd.Flags().StringVar(&f.status, "status", string(models.StatusAvailable), "stored status")
}

func (f *bookFlags) book() models.Book {
	return models.Book{
		Title:       f.title,
		Author:      f.author,
		ISBN:        validate.NormalizeISBN(f.isbn),
		PublishYear: f.year,
		Category:    f.category,
		Quantity:    f.quantity,
		Status:      models.BookStatus(f.status),
	}
}

func newBooksAddCmd(deps *Deps) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			book := flags.book()
			if err := validate.Book(book, time.Now()); err != nil {
				return err
			}

			added, err := deps.Remote.AddBook(cmd.Context(), book)
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.BookAdded(added)

			fmt.Printf("Added %q (id %s)\n", added.Title, added.ID)
			return nil
		},
	}

	flags.register(cmd)
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("author")
	cmd.MarkFlagRequired("isbn")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("year")
	return cmd
}

func newBooksUpdateCmd(deps *Deps) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Update a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			book := flags.book()
			if err := validate.Book(book, time.Now()); err != nil {
				return err
			}

			updated, err := deps.Remote.UpdateBook(cmd.Context(), args[0], book)
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.BookUpdated(updated)

			fmt.Printf("Updated %q\n", updated.Title)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newBooksDeleteCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Remove a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			if err := deps.Remote.DeleteBook(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.BookDeleted(args[0])

			fmt.Printf("Deleted book %s\n", args[0])
			return nil
		},
	}
}
