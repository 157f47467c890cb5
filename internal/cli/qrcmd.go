package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookdesk/internal/qr"
)

func newQRCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Encode and inspect scan payloads",
	}
	cmd.AddCommand(
		newQREncodeBookCmd(deps),
		newQREncodeUserCmd(deps),
		newQRDecodeCmd(),
	)
	return cmd
}

func newQREncodeBookCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "encode-book <book-id>",
		Short: "Print the scannable payload for a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLogin(); err != nil {
				return err
			}

			book, ok := deps.Store.FindBook(args[0])
			if !ok {
				// The catalog may not be loaded yet in this process.
				books, err := deps.Remote.ListBooks(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s", remoteMessage(err))
				}
				deps.Store.BooksFulfilled(books)
				if book, ok = deps.Store.FindBook(args[0]); !ok {
					return fmt.Errorf("book %s not found", args[0])
				}
			}

			payload, err := qr.EncodeBook(book)
			if err != nil {
				return err
			}
			fmt.Println(payload)
			return nil
		},
	}
}

func newQREncodeUserCmd(deps *Deps) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "encode-user",
		Short: "Print the scannable identity payload for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.requireLogin(); err != nil {
				return err
			}

			user := deps.Session.User()
			if email != "" {
				if err := deps.requireLibrarian(); err != nil {
					return err
				}
				found, err := deps.Remote.FindUserByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("%s", remoteMessage(err))
				}
				user = found
			}

			payload, err := qr.EncodeUser(user)
			if err != nil {
				return err
			}
			fmt.Println(payload)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "encode another account by email (librarian only)")
	return cmd
}

func newQRDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <payload>",
		Short: "Decode a scan payload and show what it identifies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := qr.ParsePayload(args[0])
			if err != nil {
				return fmt.Errorf("invalid QR code: %v", err)
			}

			switch p := payload.(type) {
			case qr.BookPayload:
				fmt.Println("Kind:   book")
				fmt.Printf("ID:     %s\n", p.ID)
				fmt.Printf("Title:  %s\n", p.Title)
				if p.Author != "" {
					fmt.Printf("Author: %s\n", p.Author)
				}
				if p.ISBN != "" {
					fmt.Printf("ISBN:   %s\n", p.ISBN)
				}
				fmt.Printf("Status: %s\n", p.Status.Label())
			case qr.UserPayload:
				fmt.Println("Kind:  user")
				fmt.Printf("Name:  %s\n", p.Name)
				fmt.Printf("Email: %s\n", p.Email)
				if p.Role != "" {
					fmt.Printf("Role:  %s\n", p.Role)
				}
			}
			return nil
		},
	}
}
