package mutation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/navigation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

// DefaultRedirectURL is the base that short links are served from.
const DefaultRedirectURL = "http://localhost:3010/"

// DeletePrompt is the question asked before a link is deleted.
const DeletePrompt = "Are you sure to delete this data?"

var (
	// ErrNotConfirmed is returned when the user declines a deletion.
	ErrNotConfirmed = errors.New("deletion not confirmed")
	// ErrNotLoaded is returned when an edit is submitted before a link was loaded.
	ErrNotLoaded = errors.New("no link loaded")
)

// LinkAPI is the part of the backend client the link coordinators call.
type LinkAPI interface {
	CreateLink(ctx context.Context, in entity.LinkInput) (*entity.Link, error)
	GetLink(ctx context.Context, id string) (*entity.Link, error)
	UpdateLink(ctx context.Context, id string, in entity.LinkInput) (*entity.Link, error)
	DeleteLink(ctx context.Context, id string) (*entity.Link, error)
}

// Revealer shows the user a freshly created short link so it can be copied.
type Revealer interface {
	Reveal(shortURL string)
}

// ShortURL joins the redirect base and a slug.
func ShortURL(base, slug string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + slug
}

// CreateLink shortens a URL and reveals the result.
type CreateLink struct {
	Lifecycle
	api         LinkAPI
	links       Links
	reveal      Revealer
	notify      Notifier
	redirectURL string
	form        Form[validation.LinkForm]
}

// NewCreateLink creates the add-link coordinator.
func NewCreateLink(client LinkAPI, links Links, reveal Revealer, notify Notifier, redirectURL string) *CreateLink {
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}

	return &CreateLink{
		api:         client,
		links:       links,
		reveal:      reveal,
		notify:      notify,
		redirectURL: redirectURL,
	}
}

// Form returns the values and errors of the form.
func (m *CreateLink) Form() Form[validation.LinkForm] {
	return m.form
}

// Submit validates values and creates the link. It returns the short URL.
func (m *CreateLink) Submit(ctx context.Context, values validation.LinkForm) (string, error) {
	m.form.Values = values
	m.form.Errors = nil

	if err := validation.ValidateLink(values); err != nil {
		m.form.Errors, _ = err.(validation.Errors)
		return "", err
	}

	var link *entity.Link
	err := m.submit(m.notify, nil, func() error {
		var err error
		link, err = m.api.CreateLink(ctx, entity.LinkInput{URL: values.URL, Slug: values.Slug})
		return err
	}, func() {
		m.form = Form[validation.LinkForm]{}
		m.links.Invalidate()
		m.reveal.Reveal(ShortURL(m.redirectURL, link.Slug))
	})
	if err != nil {
		return "", err
	}

	return ShortURL(m.redirectURL, link.Slug), nil
}

// UpdateLink edits an existing link and returns to the list.
type UpdateLink struct {
	Lifecycle
	api      LinkAPI
	links    Links
	navigate Navigator
	notify   Notifier
	id       string
	form     Form[validation.LinkForm]
}

// NewUpdateLink creates the edit-link coordinator.
func NewUpdateLink(client LinkAPI, links Links, navigate Navigator, notify Notifier) *UpdateLink {
	return &UpdateLink{
		api:      client,
		links:    links,
		navigate: navigate,
		notify:   notify,
	}
}

// Load fetches the link with id and fills the form with its current values.
func (m *UpdateLink) Load(ctx context.Context, id string) (*entity.Link, error) {
	link, err := m.api.GetLink(ctx, id)
	if err != nil {
		return nil, err
	}

	m.id = link.ID
	if m.id == "" {
		m.id = id
	}
	m.form = Form[validation.LinkForm]{
		Values: validation.LinkForm{URL: link.URL, Slug: link.Slug},
	}

	return link, nil
}

// Form returns the values and errors of the form.
func (m *UpdateLink) Form() Form[validation.LinkForm] {
	return m.form
}

// Submit validates values and saves them to the loaded link. It returns
// ErrNotLoaded without calling the backend when Load has not succeeded.
func (m *UpdateLink) Submit(ctx context.Context, values validation.LinkForm) (*entity.Link, error) {
	if m.id == "" {
		return nil, ErrNotLoaded
	}

	m.form.Values = values
	m.form.Errors = nil

	if err := validation.ValidateLink(values); err != nil {
		m.form.Errors, _ = err.(validation.Errors)
		return nil, err
	}

	var link *entity.Link
	err := m.submit(m.notify, nil, func() error {
		var err error
		link, err = m.api.UpdateLink(ctx, m.id, entity.LinkInput{URL: values.URL, Slug: values.Slug})
		return err
	}, func() {
		m.links.Invalidate()
		m.navigate.Navigate(navigation.To(navigation.Home))
	})
	if err != nil {
		return nil, err
	}

	return link, nil
}

// DeleteLink removes a link after the user confirms and refreshes the list.
type DeleteLink struct {
	Lifecycle
	api     LinkAPI
	links   Links
	confirm Confirmer
	notify  Notifier
	logger  *slog.Logger
}

// NewDeleteLink creates the delete coordinator.
func NewDeleteLink(client LinkAPI, links Links, confirm Confirmer, notify Notifier, logger *slog.Logger) *DeleteLink {
	if logger == nil {
		logger = discardLogger()
	}

	return &DeleteLink{
		api:     client,
		links:   links,
		confirm: confirm,
		notify:  notify,
		logger:  logger,
	}
}

// Submit asks for confirmation and deletes the link with id. Declining returns
// ErrNotConfirmed without calling the backend.
func (m *DeleteLink) Submit(ctx context.Context, id string) error {
	if !m.confirm.Confirm(DeletePrompt) {
		return ErrNotConfirmed
	}

	return m.submit(m.notify, nil, func() error {
		_, err := m.api.DeleteLink(ctx, id)
		return err
	}, func() {
		if _, err := m.links.Refresh(ctx); err != nil {
			m.logger.Warn("failed to refresh links after delete", slog.String("id", id), slog.Any("err", err))
		}
	})
}
