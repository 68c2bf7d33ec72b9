package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/mutation"
)

// assumeYes answers every confirmation with yes.
type assumeYes struct{}

func (assumeYes) Confirm(string) bool {
	return true
}

func newLinksCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "Manage your short links",
	}

	cmd.AddCommand(
		newLinksListCommand(e),
		newLinksShowCommand(e),
		newLinksEditCommand(e),
		newLinksDeleteCommand(e),
	)

	return cmd
}

func newLinksListCommand(e *env) *cobra.Command {
	var (
		page int
		sort string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your links one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := []collection.Option{collection.WithPage(page)}
			if sort != "" {
				key, err := entity.ParseSortKey(sort)
				if err != nil {
					return fmt.Errorf("invalid sort %q, use %q or %q", sort, entity.SortByName, entity.SortByDate)
				}
				opts = append(opts, collection.WithSort(key))
			}

			view, err := e.openLinks(opts...).Load(cmd.Context())
			if err != nil {
				return e.failFetch(err)
			}

			e.printLinks(view)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().StringVar(&sort, "sort", "", "order by name or date")

	return cmd
}

func newLinksShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, err := e.client.GetLink(cmd.Context(), args[0])
			if err != nil {
				return e.failFetch(err)
			}

			e.term.Printf("ID:         %s\n", link.ID)
			e.term.Printf("Short link: %s\n", mutation.ShortURL(e.cfg.RedirectURL, link.Slug))
			e.term.Printf("URL:        %s\n", link.URL)
			e.term.Printf("Visited:    %d\n", link.Visited)
			e.term.Printf("Created:    %s\n", link.CreatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newLinksEditCommand(e *env) *cobra.Command {
	var (
		url  string
		slug string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the target or alias of a link",
		Long:  "Change the target or alias of a link. Values not given as flags are prompted for, keeping the current one on an empty answer.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := mutation.NewUpdateLink(e.client, e.links, e.nav, e.term)

			if _, err := update.Load(cmd.Context(), args[0]); err != nil {
				return e.failFetch(err)
			}

			values := update.Form().Values
			if !cmd.Flags().Changed("url") && !cmd.Flags().Changed("slug") {
				url = e.promptDefault("URL", values.URL)
				slug = e.promptDefault("Custom ID", values.Slug)
			}
			if url != "" {
				values.URL = url
			}
			if slug != "" {
				values.Slug = slug
			}

			link, err := update.Submit(cmd.Context(), values)
			if err != nil {
				return e.fail(err)
			}

			e.term.Printf("Updated %s.\n", mutation.ShortURL(e.cfg.RedirectURL, link.Slug))
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "new target URL")
	cmd.Flags().StringVarP(&slug, "slug", "s", "", "new custom alias")

	return cmd
}

func newLinksDeleteCommand(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm mutation.Confirmer = e.term
			if yes {
				confirm = assumeYes{}
			}

			del := mutation.NewDeleteLink(e.client, e.links, confirm, e.term, e.logger)

			err := del.Submit(cmd.Context(), args[0])
			if errors.Is(err, mutation.ErrNotConfirmed) {
				e.term.Printf("Nothing deleted.\n")
				return nil
			}
			if err != nil {
				return e.fail(err)
			}

			e.term.Printf("Deleted.\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

func (e *env) promptDefault(label, current string) string {
	answer := e.term.Prompt(fmt.Sprintf("%s [%s]", label, current))
	if answer == "" {
		return current
	}
	return answer
}
