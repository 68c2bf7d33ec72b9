package cli

import (
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/dlink/internal/mutation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

func newShortenCommand(e *env) *cobra.Command {
	var (
		slug string
		qr   bool
	)

	cmd := &cobra.Command{
		Use:   "shorten <url>",
		Short: "Create a short link",
		Long:  "Create a short link. When signed in, the link is added to your collection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e.term.ShowQR(qr)

			create := mutation.NewCreateLink(e.client, e.links, e.term, e.term, e.cfg.RedirectURL)

			_, err := create.Submit(cmd.Context(), validation.LinkForm{URL: args[0], Slug: slug})
			if err != nil {
				return e.fail(err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&slug, "slug", "s", "", "custom alias, 4 or more characters")
	cmd.Flags().BoolVar(&qr, "qr", false, "print the short link as a QR code")

	return cmd
}
