package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/mutation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

// shownError marks an error the user has already been told about.
type shownError struct {
	err error
}

func (e *shownError) Error() string {
	return e.err.Error()
}

func (e *shownError) Unwrap() error {
	return e.err
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand()

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var shown *shownError
	if !errors.As(err, &shown) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}

	return 1
}

// fail reports err to the user unless a coordinator already did.
func (e *env) fail(err error) error {
	var (
		fields validation.Errors
		apiErr *api.Error
	)

	switch {
	case errors.As(err, &fields):
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			e.term.Notify(fields[name])
		}
	case errors.As(err, &apiErr):
	default:
		return err
	}

	return &shownError{err: err}
}

// failFetch reports a failed listing, which no coordinator notifies about.
func (e *env) failFetch(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	e.term.Notify(mutation.Message(err, nil))
	return &shownError{err: err}
}

func (e *env) printLinks(view collection.View) {
	if len(view.Links) == 0 {
		e.term.Printf("No links yet.\n")
		return
	}

	e.term.Printf("Page %d of %d, sorted by %s. %d links, most visited %d times.\n",
		view.Key.Page, view.MaxPage, view.Key.Sort, view.Total, view.MostVisitedCount)

	e.term.mu.Lock()
	defer e.term.mu.Unlock()

	w := tabwriter.NewWriter(e.term.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSHORT LINK\tVISITED\tCREATED\tURL")
	for _, link := range view.Links {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			link.ID,
			mutation.ShortURL(e.cfg.RedirectURL, link.Slug),
			link.Visited,
			link.CreatedAt.Format("2006-01-02"),
			link.URL,
		)
	}
	w.Flush()
}
