package mutation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/navigation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

type LinksTestSuite struct {
	suite.Suite
	ctx       context.Context
	apiMock   *MockLinkAPI
	linksMock *MockLinks
	navMock   *MockNavigator
	notifMock *MockNotifier
	confMock  *MockConfirmer
	revMock   *MockRevealer
}

func (suite *LinksTestSuite) SetupSuite() {
	suite.ctx = context.Background()
}

func (suite *LinksTestSuite) SetupSubTest() {
	suite.apiMock = new(MockLinkAPI)
	suite.linksMock = new(MockLinks)
	suite.navMock = new(MockNavigator)
	suite.notifMock = new(MockNotifier)
	suite.confMock = new(MockConfirmer)
	suite.revMock = new(MockRevealer)
}

func (suite *LinksTestSuite) TearDownSubTest() {
	suite.apiMock.AssertExpectations(suite.T())
	suite.linksMock.AssertExpectations(suite.T())
	suite.navMock.AssertExpectations(suite.T())
	suite.notifMock.AssertExpectations(suite.T())
	suite.confMock.AssertExpectations(suite.T())
	suite.revMock.AssertExpectations(suite.T())
}

func apiError(outcome api.Outcome) error {
	return &api.Error{Op: "test", Outcome: outcome}
}

func (suite *LinksTestSuite) TestCreateLink() {
	suite.Run("reveals short url", func() {
		m := NewCreateLink(suite.apiMock, suite.linksMock, suite.revMock, suite.notifMock, "")

		var states []State
		m.Observe(func(s State) {
			states = append(states, s)
		})

		suite.apiMock.
			On("CreateLink", suite.ctx, entity.LinkInput{URL: "https://example.com"}).
			Once().
			Return(&entity.Link{ID: "1", Slug: "xyzAB", URL: "https://example.com"}, nil)
		suite.linksMock.On("Invalidate").Once()
		suite.revMock.On("Reveal", "http://localhost:3010/xyzAB").Once()

		shortURL, err := m.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com"})

		suite.NoError(err)
		suite.Equal("http://localhost:3010/xyzAB", shortURL)
		suite.Equal([]State{Submitting, Succeeded, Idle}, states)
		suite.Equal(Idle, m.State())
		suite.Empty(m.Form().Values.URL)
	})

	suite.Run("invalid form makes no call", func() {
		m := NewCreateLink(suite.apiMock, suite.linksMock, suite.revMock, suite.notifMock, "")

		shortURL, err := m.Submit(suite.ctx, validation.LinkForm{URL: "example", Slug: "ab"})

		suite.Error(err)
		suite.Empty(shortURL)
		suite.Equal(Idle, m.State())
		suite.NotEmpty(m.Form().Errors.Field("url"))
		suite.NotEmpty(m.Form().Errors.Field("slug"))
		suite.Equal("example", m.Form().Values.URL)
	})

	suite.Run("slug taken keeps values", func() {
		m := NewCreateLink(suite.apiMock, suite.linksMock, suite.revMock, suite.notifMock, "https://dl.ink")

		var states []State
		m.Observe(func(s State) {
			states = append(states, s)
		})

		suite.apiMock.
			On("CreateLink", suite.ctx, entity.LinkInput{URL: "https://example.com", Slug: "taken"}).
			Once().
			Return(nil, apiError(api.OutcomeBadRequest))
		suite.notifMock.On("Notify", "Bad Request from user").Once()

		shortURL, err := m.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com", Slug: "taken"})

		suite.Error(err)
		suite.ErrorIs(err, api.ErrBadRequest)
		suite.Empty(shortURL)
		suite.Equal([]State{Submitting, Failed, Idle}, states)
		suite.Equal("taken", m.Form().Values.Slug)
	})

	suite.Run("custom redirect base", func() {
		m := NewCreateLink(suite.apiMock, suite.linksMock, suite.revMock, suite.notifMock, "https://dl.ink")

		suite.apiMock.
			On("CreateLink", suite.ctx, mock.Anything).
			Once().
			Return(&entity.Link{Slug: "abcd"}, nil)
		suite.linksMock.On("Invalidate").Once()
		suite.revMock.On("Reveal", "https://dl.ink/abcd").Once()

		shortURL, err := m.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com", Slug: "abcd"})

		suite.NoError(err)
		suite.Equal("https://dl.ink/abcd", shortURL)
	})
}

func (suite *LinksTestSuite) TestUpdateLink() {
	suite.Run("load prefills form", func() {
		m := NewUpdateLink(suite.apiMock, suite.linksMock, suite.navMock, suite.notifMock)

		suite.apiMock.
			On("GetLink", suite.ctx, "42").
			Once().
			Return(&entity.Link{ID: "42", Slug: "docs", URL: "https://example.com/docs"}, nil)

		link, err := m.Load(suite.ctx, "42")

		suite.NoError(err)
		suite.Equal("docs", link.Slug)
		suite.Equal(validation.LinkForm{URL: "https://example.com/docs", Slug: "docs"}, m.Form().Values)
	})

	suite.Run("submit navigates home", func() {
		m := NewUpdateLink(suite.apiMock, suite.linksMock, suite.navMock, suite.notifMock)

		suite.apiMock.
			On("GetLink", suite.ctx, "42").
			Once().
			Return(&entity.Link{ID: "42", Slug: "docs", URL: "https://example.com/docs"}, nil)
		suite.apiMock.
			On("UpdateLink", suite.ctx, "42", entity.LinkInput{URL: "https://example.com/v2", Slug: "docs"}).
			Once().
			Return(&entity.Link{ID: "42", Slug: "docs", URL: "https://example.com/v2"}, nil)
		suite.linksMock.On("Invalidate").Once()
		suite.navMock.On("Navigate", navigation.To(navigation.Home)).Once()

		_, err := m.Load(suite.ctx, "42")
		suite.Require().NoError(err)

		link, err := m.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com/v2", Slug: "docs"})

		suite.NoError(err)
		suite.Equal("https://example.com/v2", link.URL)
		suite.Equal(Idle, m.State())
	})

	suite.Run("submit before load makes no call", func() {
		m := NewUpdateLink(suite.apiMock, suite.linksMock, suite.navMock, suite.notifMock)

		link, err := m.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com"})

		suite.ErrorIs(err, ErrNotLoaded)
		suite.Nil(link)
		suite.Equal(Idle, m.State())
		suite.apiMock.AssertNotCalled(suite.T(), "UpdateLink", mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("unauthorized", func() {
		m := NewUpdateLink(suite.apiMock, suite.linksMock, suite.navMock, suite.notifMock)

		suite.apiMock.
			On("GetLink", suite.ctx, "42").
			Once().
			Return(&entity.Link{ID: "42", Slug: "docs", URL: "https://example.com/docs"}, nil)
		suite.apiMock.
			On("UpdateLink", suite.ctx, "42", mock.Anything).
			Once().
			Return(nil, apiError(api.OutcomeUnauthorized))
		suite.notifMock.On("Notify", "Unauthorized, please login again").Once()

		_, err := m.Load(suite.ctx, "42")
		suite.Require().NoError(err)

		link, err := m.Submit(suite.ctx, validation.LinkForm{URL: "https://example.com"})

		suite.ErrorIs(err, api.ErrUnauthorized)
		suite.Nil(link)
		suite.Equal("https://example.com", m.Form().Values.URL)
	})
}

func (suite *LinksTestSuite) TestDeleteLink() {
	suite.Run("declined makes no call", func() {
		m := NewDeleteLink(suite.apiMock, suite.linksMock, suite.confMock, suite.notifMock, nil)

		suite.confMock.On("Confirm", DeletePrompt).Once().Return(false)

		err := m.Submit(suite.ctx, "42")

		suite.ErrorIs(err, ErrNotConfirmed)
		suite.Equal(Idle, m.State())
		suite.apiMock.AssertNotCalled(suite.T(), "DeleteLink", mock.Anything, mock.Anything)
		suite.linksMock.AssertNotCalled(suite.T(), "Refresh", mock.Anything)
	})

	suite.Run("confirmed refreshes list", func() {
		m := NewDeleteLink(suite.apiMock, suite.linksMock, suite.confMock, suite.notifMock, nil)

		suite.confMock.On("Confirm", DeletePrompt).Once().Return(true)
		suite.apiMock.On("DeleteLink", suite.ctx, "42").Once().Return(&entity.Link{ID: "42"}, nil)
		suite.linksMock.On("Refresh", suite.ctx).Once().Return(collection.View{Loaded: true}, nil)

		err := m.Submit(suite.ctx, "42")

		suite.NoError(err)
	})

	suite.Run("refresh failure is not reported", func() {
		m := NewDeleteLink(suite.apiMock, suite.linksMock, suite.confMock, suite.notifMock, nil)

		suite.confMock.On("Confirm", DeletePrompt).Once().Return(true)
		suite.apiMock.On("DeleteLink", suite.ctx, "42").Once().Return(&entity.Link{ID: "42"}, nil)
		suite.linksMock.On("Refresh", suite.ctx).Once().Return(collection.View{}, errors.New("boom"))

		err := m.Submit(suite.ctx, "42")

		suite.NoError(err)
	})

	suite.Run("server error", func() {
		m := NewDeleteLink(suite.apiMock, suite.linksMock, suite.confMock, suite.notifMock, nil)

		suite.confMock.On("Confirm", DeletePrompt).Once().Return(true)
		suite.apiMock.On("DeleteLink", suite.ctx, "42").Once().Return(nil, apiError(api.OutcomeServerError))
		suite.notifMock.On("Notify", "Internal server error").Once()

		err := m.Submit(suite.ctx, "42")

		suite.ErrorIs(err, api.ErrServerError)
	})
}

func (suite *LinksTestSuite) TestBusy() {
	suite.Run("second submit while in flight", func() {
		m := NewDeleteLink(suite.apiMock, suite.linksMock, suite.confMock, suite.notifMock, nil)

		var nested error
		suite.confMock.On("Confirm", DeletePrompt).Twice().Return(true)
		suite.apiMock.
			On("DeleteLink", suite.ctx, "42").
			Once().
			Run(func(mock.Arguments) {
				nested = m.Submit(suite.ctx, "43")
			}).
			Return(&entity.Link{ID: "42"}, nil)
		suite.linksMock.On("Refresh", suite.ctx).Once().Return(collection.View{}, nil)

		err := m.Submit(suite.ctx, "42")

		suite.NoError(err)
		suite.ErrorIs(nested, ErrBusy)
	})

	suite.Run("concurrent submits reach the backend once", func() {
		const submitters = 8

		m := NewDeleteLink(suite.apiMock, suite.linksMock, suite.confMock, suite.notifMock, nil)
		release := make(chan time.Time)

		suite.confMock.On("Confirm", DeletePrompt).Times(submitters).Return(true)
		suite.apiMock.
			On("DeleteLink", suite.ctx, "42").
			Once().
			WaitUntil(release).
			Return(&entity.Link{ID: "42"}, nil)
		suite.linksMock.On("Refresh", suite.ctx).Once().Return(collection.View{}, nil)

		start := make(chan struct{})
		errs := make(chan error, submitters)
		for range submitters {
			go func() {
				<-start
				errs <- m.Submit(suite.ctx, "42")
			}()
		}
		close(start)

		var busy int
		for range submitters - 1 {
			if errors.Is(<-errs, ErrBusy) {
				busy++
			}
		}
		close(release)

		suite.NoError(<-errs)
		suite.Equal(submitters-1, busy)
		suite.Equal(Idle, m.State())
	})
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Unable to reach the server", Message(apiError(api.OutcomeNetworkFailure), nil))
	assert.Equal(t, "Wrong username or password", Message(apiError(api.OutcomeBadRequest), loginMessages))
	assert.Equal(t, "Internal server error", Message(errors.New("boom"), nil))
}

func TestShortURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3010/xyzAB", ShortURL("http://localhost:3010/", "xyzAB"))
	assert.Equal(t, "http://localhost:3010/xyzAB", ShortURL("http://localhost:3010", "xyzAB"))
}

func TestLinks(t *testing.T) {
	suite.Run(t, new(LinksTestSuite))
}
