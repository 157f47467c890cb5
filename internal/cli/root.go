// Package cli defines the bookdesk command tree. Commands are thin:
// they parse flags and prompts, call into the workflow and api layers,
// and print tables. All state lives in the injected dependencies.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"bookdesk/internal/api"
	"bookdesk/internal/cache"
	"bookdesk/internal/session"
	"bookdesk/internal/store"
	"bookdesk/internal/workflow"
)

// Deps carries everything the commands need.
type Deps struct {
	Logger  *zap.Logger
	Remote  api.Service
	Store   *store.Store
	Session *session.Session
	Cache   *cache.Cache

	Lend   *workflow.LendFlow
	Return *workflow.ReturnFlow

	// SetToken propagates a new bearer token to the HTTP client. Nil
	// when the remote is the in-memory stub.
	SetToken func(token string)
}

// New builds the root command.
func New(deps *Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookdesk",
		Short:         "Library desk client: catalog, QR-driven lending, and returns",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(deps),
		newRegisterCmd(deps),
		newLogoutCmd(deps),
		newBooksCmd(deps),
		newLendCmd(deps),
		newReturnCmd(deps),
		newBorrowsCmd(deps),
		newMyBorrowsCmd(deps),
		newExtendCmd(deps),
		newDashboardCmd(deps),
		newQRCmd(deps),
	)
	return root
}

func (d *Deps) setToken(token string) {
	if d.SetToken != nil {
		d.SetToken(token)
	}
}

// requireLogin fails fast when no session is established.
func (d *Deps) requireLogin() error {
	if !d.Session.Active() {
		return fmt.Errorf("not logged in, run 'bookdesk login' first")
	}
	return nil
}

// requireLibrarian guards the desk-side operations.
func (d *Deps) requireLibrarian() error {
	if err := d.requireLogin(); err != nil {
		return err
	}
	if !d.Session.IsLibrarian() {
		return fmt.Errorf("this command requires a librarian account")
	}
	return nil
}

// prompt reads one trimmed line from the reader.
func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassword securely reads a password with masking
func readPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// remoteMessage turns an error into the line the operator sees.
func remoteMessage(err error) string {
	if msg := workflow.UserMessage(err); msg != "" {
		return msg
	}
	return api.FallbackMessage
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func stdin() *bufio.Reader {
	return bufio.NewReader(os.Stdin)
}
