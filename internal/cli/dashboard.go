package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDashboardCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show catalog and loan counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			books, err := deps.Remote.ListBooks(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.BooksFulfilled(books)

			active, err := deps.Remote.ActiveBorrows(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.ActiveFulfilled(active)

			stats := deps.Store.Dashboard(time.Now())
			fmt.Printf("Total books:    %d\n", stats.TotalBooks)
			fmt.Printf("Borrowed books: %d\n", stats.BorrowedBooks)
			fmt.Printf("Active loans:   %d\n", stats.ActiveLoans)
			fmt.Printf("Overdue loans:  %d\n", stats.OverdueLoans)
			return nil
		},
	}
}
