package mutation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/navigation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

// AuthAPI is the part of the backend client the auth coordinators call.
type AuthAPI interface {
	Login(ctx context.Context, creds entity.Credentials) (string, error)
	Register(ctx context.Context, reg entity.Registration) (*entity.User, error)
}

// SessionWriter stores and removes the access token.
type SessionWriter interface {
	Login(token string) error
	Logout() error
}

var loginMessages = map[api.Outcome]string{
	api.OutcomeBadRequest: "Wrong username or password",
}

var registerMessages = map[api.Outcome]string{
	api.OutcomeBadRequest: "There is an error",
}

// Login signs the user in and opens the home view.
type Login struct {
	Lifecycle
	api      AuthAPI
	session  SessionWriter
	navigate Navigator
	notify   Notifier
	form     Form[validation.LoginForm]
}

// NewLogin creates the login coordinator.
func NewLogin(client AuthAPI, session SessionWriter, navigate Navigator, notify Notifier) *Login {
	return &Login{
		api:      client,
		session:  session,
		navigate: navigate,
		notify:   notify,
	}
}

// Form returns the values and errors of the form.
func (m *Login) Form() Form[validation.LoginForm] {
	return m.form
}

// Submit validates the credentials, exchanges them for a token and stores it.
func (m *Login) Submit(ctx context.Context, values validation.LoginForm) error {
	const op = "mutation.Login.Submit"

	m.form.Values = values
	m.form.Errors = nil

	if err := validation.ValidateLogin(values); err != nil {
		m.form.Errors, _ = err.(validation.Errors)
		return err
	}

	return m.submit(m.notify, loginMessages, func() error {
		token, err := m.api.Login(ctx, entity.Credentials{
			Username: values.Username,
			Password: values.Password,
		})
		if err != nil {
			return err
		}

		if err := m.session.Login(token); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	}, func() {
		m.form = Form[validation.LoginForm]{}
		m.navigate.Navigate(navigation.To(navigation.Home))
	})
}

// Register creates an account and sends the user to the login view.
type Register struct {
	Lifecycle
	api      AuthAPI
	navigate Navigator
	notify   Notifier
	form     Form[validation.RegisterForm]
}

// NewRegister creates the registration coordinator.
func NewRegister(client AuthAPI, navigate Navigator, notify Notifier) *Register {
	return &Register{
		api:      client,
		navigate: navigate,
		notify:   notify,
	}
}

// Form returns the values and errors of the form.
func (m *Register) Form() Form[validation.RegisterForm] {
	return m.form
}

// Submit validates the form and registers the account.
func (m *Register) Submit(ctx context.Context, values validation.RegisterForm) (*entity.User, error) {
	m.form.Values = values
	m.form.Errors = nil

	if err := validation.ValidateRegister(values); err != nil {
		m.form.Errors, _ = err.(validation.Errors)
		return nil, err
	}

	var user *entity.User
	err := m.submit(m.notify, registerMessages, func() error {
		var err error
		user, err = m.api.Register(ctx, entity.Registration{
			Name:     values.Fullname,
			Username: values.Username,
			Password: values.Password,
		})
		return err
	}, func() {
		m.form = Form[validation.RegisterForm]{}
		m.navigate.Navigate(navigation.To(navigation.Login))
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Logout signs the user out.
type Logout struct {
	session  SessionWriter
	links    Links
	navigate Navigator
	logger   *slog.Logger
}

// NewLogout creates the logout coordinator.
func NewLogout(session SessionWriter, links Links, navigate Navigator, logger *slog.Logger) *Logout {
	if logger == nil {
		logger = discardLogger()
	}

	return &Logout{
		session:  session,
		links:    links,
		navigate: navigate,
		logger:   logger,
	}
}

// Submit removes the token, drops cached pages and opens the landing view.
func (m *Logout) Submit() error {
	const op = "mutation.Logout.Submit"

	if err := m.session.Logout(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.links.Invalidate()
	m.navigate.Navigate(navigation.To(navigation.Landing))
	m.logger.Info("signed out")

	return nil
}
