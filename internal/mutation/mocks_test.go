package mutation

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/dlink/internal/collection"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/internal/navigation"
)

type MockLinkAPI struct {
	mock.Mock
}

func (m *MockLinkAPI) CreateLink(ctx context.Context, in entity.LinkInput) (*entity.Link, error) {
	args := m.Called(ctx, in)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *MockLinkAPI) GetLink(ctx context.Context, id string) (*entity.Link, error) {
	args := m.Called(ctx, id)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *MockLinkAPI) UpdateLink(ctx context.Context, id string, in entity.LinkInput) (*entity.Link, error) {
	args := m.Called(ctx, id, in)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

func (m *MockLinkAPI) DeleteLink(ctx context.Context, id string) (*entity.Link, error) {
	args := m.Called(ctx, id)
	link, _ := args.Get(0).(*entity.Link)
	return link, args.Error(1)
}

type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, creds entity.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

func (m *MockAuthAPI) Register(ctx context.Context, reg entity.Registration) (*entity.User, error) {
	args := m.Called(ctx, reg)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Login(token string) error {
	return m.Called(token).Error(0)
}

func (m *MockSession) Logout() error {
	return m.Called().Error(0)
}

type MockLinks struct {
	mock.Mock
}

func (m *MockLinks) Invalidate() {
	m.Called()
}

func (m *MockLinks) Refresh(ctx context.Context) (collection.View, error) {
	args := m.Called(ctx)
	view, _ := args.Get(0).(collection.View)
	return view, args.Error(1)
}

type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Navigate(v navigation.View) {
	m.Called(v)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(msg string) {
	m.Called(msg)
}

type MockConfirmer struct {
	mock.Mock
}

func (m *MockConfirmer) Confirm(prompt string) bool {
	return m.Called(prompt).Bool(0)
}

type MockRevealer struct {
	mock.Mock
}

func (m *MockRevealer) Reveal(shortURL string) {
	m.Called(shortURL)
}
