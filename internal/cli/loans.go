package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookdesk/internal/cache"
	"bookdesk/internal/models"
	"bookdesk/internal/workflow"
)

const dateLayout = "2006-01-02"

func newLendCmd(deps *Deps) *cobra.Command {
	var dueStr string

	cmd := &cobra.Command{
		Use:   "lend",
		Short: "Lend a book: scan a user code, scan a book code, confirm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			in := stdin()
			flow := deps.Lend

			if dueStr != "" {
				due, err := time.Parse(dateLayout, dueStr)
				if err != nil {
					return fmt.Errorf("invalid --due date, want YYYY-MM-DD: %w", err)
				}
				if err := flow.SetDueDate(due); err != nil {
					return err
				}
			}

			flow.StartUserScan()
			if err := scanLoop(cmd, in, "Scan user code: ", flow.HandleScan); err != nil {
				return err
			}
			user := flow.User()
			fmt.Printf("User: %s <%s>\n", user.Name, user.Email)

			flow.StartBookScan()
			if err := scanLoop(cmd, in, "Scan book code: ", flow.HandleScan); err != nil {
				return err
			}
			book := flow.Book()
			fmt.Printf("Book: %s by %s\n", book.Title, book.Author)

			fmt.Printf("Due date: %s\n", flow.DueDate().Format(dateLayout))
			answer, err := prompt(in, "Confirm lend? [y/N] ")
			if err != nil {
				return err
			}
			if !strings.EqualFold(answer, "y") {
				fmt.Println("Cancelled. Scanned selections kept for the next attempt.")
				return nil
			}

			borrow, err := flow.Confirm(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}

			fmt.Printf("Lent %q to %s, due %s\n",
				borrow.BookTitle, borrow.UserName, borrow.DueDate.Format(dateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&dueStr, "due", "", "due date (YYYY-MM-DD), default 14 days from today")
	return cmd
}

// scanLoop feeds pasted scan payloads through a gated scanner until
// one is accepted. Invalid codes print their message and keep the loop
// going, matching how a desk scanner retries.
func scanLoop(cmd *cobra.Command, in *bufio.Reader, label string, handle workflow.ScanHandler) error {
	scanner := workflow.NewScanner(handle)
	for {
		raw, err := prompt(in, label)
		if err != nil {
			return err
		}
		if raw == "" {
			return fmt.Errorf("aborted")
		}

		if err := scanner.Deliver(cmd.Context(), raw); err != nil {
			if msg := workflow.UserMessage(err); msg != "" {
				fmt.Println(msg)
			}
			continue
		}
		return nil
	}
}

func newReturnCmd(deps *Deps) *cobra.Command {
	var overdueOnly bool

	cmd := &cobra.Command{
		Use:   "return",
		Short: "Receive a book back from a borrower",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			in := stdin()
			flow := deps.Return

			borrows, err := flow.Load(cmd.Context(), overdueOnly)
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			if len(borrows) == 0 {
				fmt.Println("No open loans.")
				return nil
			}

			printBorrows(borrows, time.Now())
			choice, err := prompt(in, "Loan number to return: ")
			if err != nil {
				return err
			}
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(borrows) {
				return fmt.Errorf("invalid selection %q", choice)
			}
			if err := flow.Select(borrows[idx-1]); err != nil {
				return err
			}

			conditionStr, err := prompt(in, fmt.Sprintf("Condition %v [good]: ", models.Conditions()))
			if err != nil {
				return err
			}
			if conditionStr != "" {
				if err := flow.SetCondition(models.Condition(conditionStr)); err != nil {
					return err
				}
			}

			notes, err := prompt(in, "Notes (optional): ")
			if err != nil {
				return err
			}
			flow.SetNotes(notes)

			returned, err := flow.Confirm(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}

			fmt.Printf("Received %q from %s (condition: %s)\n",
				returned.BookTitle, returned.UserName, returned.Condition)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overdueOnly, "overdue", false, "only list overdue loans")
	return cmd
}

func newBorrowsCmd(deps *Deps) *cobra.Command {
	var overdueOnly bool

	cmd := &cobra.Command{
		Use:   "borrows",
		Short: "List open loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			deps.Store.BorrowsPending()
			var (
				borrows []models.Borrow
				err     error
			)
			if overdueOnly {
				borrows, err = deps.Remote.OverdueBorrows(cmd.Context())
			} else {
				borrows, err = deps.Remote.ActiveBorrows(cmd.Context())
			}
			if err != nil {
				deps.Store.BorrowsRejected(remoteMessage(err))
				return fmt.Errorf("%s", remoteMessage(err))
			}

			list := cache.ActiveList
			if overdueOnly {
				deps.Store.OverdueFulfilled(borrows)
				list = cache.OverdueList
			} else {
				deps.Store.ActiveFulfilled(borrows)
			}
			if err := deps.Cache.SaveBorrows(cmd.Context(), list, borrows); err != nil {
				deps.Logger.Warn("Failed to cache loans", zap.Error(err))
			}

			if len(borrows) == 0 {
				fmt.Println("No open loans.")
				return nil
			}
			printBorrows(borrows, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&overdueOnly, "overdue", false, "only list overdue loans")
	return cmd
}

func newMyBorrowsCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "my-borrows",
		Short: "List your own loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLogin(); err != nil {
				return err
			}

			borrows, err := deps.Remote.MyBorrows(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.MyBorrowsFulfilled(borrows)
			if err := deps.Cache.SaveBorrows(cmd.Context(), cache.MyList, borrows); err != nil {
				deps.Logger.Warn("Failed to cache loans", zap.Error(err))
			}

			if len(borrows) == 0 {
				fmt.Println("You have no loans.")
				return nil
			}
			printBorrows(borrows, time.Now())
			return nil
		},
	}
}

func newExtendCmd(deps *Deps) *cobra.Command {
	var dueStr string

	cmd := &cobra.Command{
		Use:   "extend <borrow-id>",
		Short: "Move a loan's due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLibrarian(); err != nil {
				return err
			}

			due, err := time.Parse(dateLayout, dueStr)
			if err != nil {
				return fmt.Errorf("invalid --due date, want YYYY-MM-DD: %w", err)
			}

			borrow, err := deps.Remote.Extend(cmd.Context(), args[0], due)
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}
			deps.Store.BorrowExtended(borrow)

			fmt.Printf("Loan %s now due %s\n", borrow.ID, borrow.DueDate.Format(dateLayout))
			return nil
		},
	}

	cmd.Flags().StringVar(&dueStr, "due", "", "new due date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("due")
	return cmd
}

func printBorrows(borrows []models.Borrow, now time.Time) {
	fmt.Printf("%-4s %-12s %-30s %-22s %-12s %-10s\n", "#", "ID", "Book", "Borrower", "Due", "Status")
	fmt.Println(strings.Repeat("-", 95))
	for i, b := range borrows {
		status := string(b.EffectiveStatus(now))
		if b.OverdueAt(now) {
			days := -b.RemainingDays(now)
			status = fmt.Sprintf("overdue %dd", days)
		}
		fmt.Printf("%-4d %-12s %-30s %-22s %-12s %-10s\n",
			i+1,
			truncate(b.ID, 12),
			truncate(b.BookTitle, 30),
			truncate(b.UserName, 22),
			b.DueDate.Format(dateLayout),
			status,
		)
	}
}
