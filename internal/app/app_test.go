package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/backend/memory"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/config"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/mutation"
	"github.com/vadimbarashkov/dlink/internal/navigation"
	"github.com/vadimbarashkov/dlink/internal/session"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

type notifications []string

func (n *notifications) Notify(msg string) {
	*n = append(*n, msg)
}

type answer bool

func (a answer) Confirm(string) bool {
	return bool(a)
}

type revealed []string

func (r *revealed) Reveal(shortURL string) {
	*r = append(*r, shortURL)
}

type AppTestSuite struct {
	suite.Suite
	ctx      context.Context
	server   *httptest.Server
	session  *session.Session
	nav      *navigation.Navigator
	client   *api.Client
	links    *collection.Collection
	notified notifications
	revealed revealed
}

func (suite *AppTestSuite) SetupTest() {
	suite.ctx = context.Background()

	var cfg config.Config
	cfg.SlugLength = 5
	cfg.JWT = config.JWT{Secret: "test", TTL: time.Hour}

	logger := httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	repo := memory.New()

	suite.server = httptest.NewServer(NewHandler(&cfg, logger, repo, repo))
	suite.T().Cleanup(suite.server.Close)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.session = session.New(session.NewMemoryStore(), discard)
	suite.nav = navigation.NewNavigator(navigation.To(navigation.Landing), discard)
	suite.client = api.New(suite.server.URL, suite.session,
		api.WithHTTPClient(suite.server.Client()),
		api.WithUnauthorizedHandler(func() {
			suite.nav.Navigate(navigation.To(navigation.Landing))
		}),
	)
	suite.links = collection.New(suite.client)
	suite.notified = nil
	suite.revealed = nil
}

func (suite *AppTestSuite) signIn() {
	register := mutation.NewRegister(suite.client, suite.nav, &suite.notified)
	_, err := register.Submit(suite.ctx, validation.RegisterForm{
		Fullname:        "John Doe",
		Username:        "johndoe",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	suite.Require().NoError(err)
	suite.Equal(navigation.Login, suite.nav.Current().Screen)

	login := mutation.NewLogin(suite.client, suite.session, suite.nav, &suite.notified)
	err = login.Submit(suite.ctx, validation.LoginForm{Username: "johndoe", Password: "secret1"})
	suite.Require().NoError(err)
	suite.Equal(navigation.Home, suite.nav.Current().Screen)
	suite.True(suite.session.Authenticated())
}

func (suite *AppTestSuite) TestAnonymousShorten() {
	create := mutation.NewCreateLink(suite.client, suite.links, &suite.revealed, &suite.notified, "")

	shortURL, err := create.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com", Slug: "xyzAB"})

	suite.Require().NoError(err)
	suite.Equal("http://localhost:3010/xyzAB", shortURL)
	suite.Equal(revealed{"http://localhost:3010/xyzAB"}, suite.revealed)

	_, err = create.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com", Slug: "xyzAB"})

	suite.ErrorIs(err, api.ErrBadRequest)
	suite.Equal(notifications{"Bad Request from user"}, suite.notified)

	hc := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := hc.Get(suite.server.URL + "/xyzAB")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusFound, resp.StatusCode)
	suite.Equal("https://example.com", resp.Header.Get("Location"))
}

func (suite *AppTestSuite) TestWrongPassword() {
	login := mutation.NewLogin(suite.client, suite.session, suite.nav, &suite.notified)

	err := login.Submit(suite.ctx, validation.LoginForm{Username: "nobody", Password: "secret"})

	suite.ErrorIs(err, api.ErrBadRequest)
	suite.Equal(notifications{"Wrong username or password"}, suite.notified)
	suite.False(suite.session.Authenticated())
}

func (suite *AppTestSuite) TestListAndMutate() {
	suite.signIn()

	create := mutation.NewCreateLink(suite.client, suite.links, &suite.revealed, &suite.notified, "")
	for i := 0; i < 13; i++ {
		_, err := create.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com"})
		suite.Require().NoError(err)
	}

	view, err := suite.links.Load(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(13, view.Total)
	suite.Equal(3, view.MaxPage)
	suite.Len(view.Links, 6)

	view, err = suite.links.Next(suite.ctx)
	suite.Require().NoError(err)
	view, err = suite.links.Next(suite.ctx)
	suite.Require().NoError(err)
	suite.Equal(3, view.Key.Page)
	suite.Require().Len(view.Links, 1)

	del := mutation.NewDeleteLink(suite.client, suite.links, answer(false), &suite.notified, nil)
	suite.ErrorIs(del.Submit(suite.ctx, view.Links[0].ID), mutation.ErrNotConfirmed)

	del = mutation.NewDeleteLink(suite.client, suite.links, answer(true), &suite.notified, nil)
	suite.Require().NoError(del.Submit(suite.ctx, view.Links[0].ID))

	state := suite.links.State()
	suite.Equal(12, state.Total)
	suite.Equal(2, state.MaxPage)
	suite.Equal(2, state.Page)

	update := mutation.NewUpdateLink(suite.client, suite.links, suite.nav, &suite.notified)
	first := suite.links.View().Links[0]

	_, err = update.Load(suite.ctx, first.ID)
	suite.Require().NoError(err)

	link, err := update.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com/v2", Slug: "renamed"})
	suite.Require().NoError(err)
	suite.Equal("renamed", link.Slug)
	suite.Equal(navigation.Home, suite.nav.Current().Screen)

	view, err = suite.links.SortBy(suite.ctx, entity.SortByName)
	suite.Require().NoError(err)
	suite.Equal(2, view.Key.Page)
}

func (suite *AppTestSuite) TestExpiredSession() {
	suite.Require().NoError(suite.session.Login("not-a-valid-token"))
	suite.nav.Navigate(navigation.To(navigation.Home))

	_, err := suite.links.Load(suite.ctx)

	suite.ErrorIs(err, api.ErrUnauthorized)
	suite.False(suite.session.Authenticated())
	suite.Equal(navigation.Landing, suite.nav.Current().Screen)
}

func TestApp(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}
