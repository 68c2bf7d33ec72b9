package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/mutation"
	"github.com/vadimbarashkov/dlink/internal/navigation"
)

const browseHelp = "[n]ext, [p]rev, [s]ort name|date, [d]elete <id>, [r]efresh, [q]uit"

func newBrowseCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Page through your links interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.browse(cmd.Context())
		},
	}
}

func (e *env) browse(ctx context.Context) error {
	view, err := e.links.Load(ctx)
	if err != nil {
		return e.failFetch(err)
	}
	e.printLinks(view)

	del := mutation.NewDeleteLink(e.client, e.links, e.term, e.term, e.logger)

	for {
		line, err := e.term.Ask(browseHelp)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "n", "next":
			view, err = e.links.Next(ctx)
		case "p", "prev":
			view, err = e.links.Prev(ctx)
		case "s", "sort":
			sort, perr := entity.ParseSortKey(arg)
			if perr != nil {
				e.term.Notify("Sort by name or date")
				continue
			}
			view, err = e.links.SortBy(ctx, sort)
		case "d", "delete":
			if arg == "" {
				e.term.Notify("Which link? Use: d <id>")
				continue
			}
			if errors.Is(del.Submit(ctx, arg), mutation.ErrNotConfirmed) {
				continue
			}
			view = e.links.View()
		case "r", "refresh":
			view, err = e.links.Refresh(ctx)
		case "q", "quit":
			return nil
		case "":
			continue
		default:
			e.term.Notify("Unknown command " + verb)
			continue
		}

		if err != nil && !errors.Is(err, collection.ErrSuperseded) {
			e.term.Notify(mutation.Message(err, nil))
		}
		if e.nav.Current().Screen == navigation.Landing {
			// the session was torn down
			return &shownError{err: api.ErrUnauthorized}
		}

		e.printLinks(view)
	}
}
