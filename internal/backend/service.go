// Package backend implements the link shortening service behind the REST API
// the client consumes. It is used by the development server.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"golang.org/x/crypto/bcrypt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	DefaultLimit      = 6
	MaxLimit          = 100
	DefaultSlugLength = 5
)

var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating slug")

// ListQuery selects a page of a user's links.
type ListQuery struct {
	Limit int
	Page  int
	Sort  entity.SortKey
}

// Offset is the number of links before the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Account is a user together with the hash of its password.
type Account struct {
	entity.User
	PasswordHash []byte
}

type LinkRepository interface {
	SaveLink(ctx context.Context, owner string, link entity.Link) (*entity.Link, error)
	ListLinks(ctx context.Context, owner string, q ListQuery) (*entity.LinkPage, error)
	LinkByID(ctx context.Context, owner, id string) (*entity.Link, error)
	UpdateLink(ctx context.Context, owner, id string, in entity.LinkInput) (*entity.Link, error)
	DeleteLink(ctx context.Context, owner, id string) (*entity.Link, error)
	VisitLink(ctx context.Context, slug string) (*entity.Link, error)
}

type UserRepository interface {
	SaveUser(ctx context.Context, acc Account) (*entity.User, error)
	AccountByUsername(ctx context.Context, username string) (*Account, error)
}

type Service struct {
	slugLength int
	links      LinkRepository
	users      UserRepository
	tokens     *Tokens
}

func NewService(slugLength int, links LinkRepository, users UserRepository, tokens *Tokens) *Service {
	if slugLength <= 0 {
		slugLength = DefaultSlugLength
	}

	return &Service{
		slugLength: slugLength,
		links:      links,
		users:      users,
		tokens:     tokens,
	}
}

// ShortenLink saves a link for owner, who may be empty for anonymous links.
// Without a custom slug one is generated, growing longer on collisions.
func (s *Service) ShortenLink(ctx context.Context, owner string, in entity.LinkInput) (*entity.Link, error) {
	const op = "backend.Service.ShortenLink"
	const maxRetries = 5

	if in.Slug != "" {
		link, err := s.links.SaveLink(ctx, owner, entity.Link{ID: uuid.NewString(), Slug: in.Slug, URL: in.URL})
		if err != nil {
			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}
		return link, nil
	}

	length := s.slugLength
	for i := 0; i < maxRetries; i++ {
		slug, err := gonanoid.New(length)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate slug: %w", op, err)
		}

		link, err := s.links.SaveLink(ctx, owner, entity.Link{ID: uuid.NewString(), Slug: slug, URL: in.URL})
		if err != nil {
			if errors.Is(err, entity.ErrSlugExists) {
				length++
				continue
			}

			return nil, fmt.Errorf("%s: failed to save link: %w", op, err)
		}

		return link, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ListLinks returns a page of owner's links. Out of range limits and pages are
// replaced with defaults.
func (s *Service) ListLinks(ctx context.Context, owner string, q ListQuery) (*entity.LinkPage, error) {
	const op = "backend.Service.ListLinks"

	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Sort == "" {
		q.Sort = entity.SortByDate
	}

	page, err := s.links.ListLinks(ctx, owner, q)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list links: %w", op, err)
	}

	return page, nil
}

func (s *Service) GetLink(ctx context.Context, owner, id string) (*entity.Link, error) {
	const op = "backend.Service.GetLink"

	link, err := s.links.LinkByID(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link: %w", op, err)
	}

	return link, nil
}

// UpdateLink changes the target of a link and, when in.Slug is set, its slug.
func (s *Service) UpdateLink(ctx context.Context, owner, id string, in entity.LinkInput) (*entity.Link, error) {
	const op = "backend.Service.UpdateLink"

	link, err := s.links.UpdateLink(ctx, owner, id, in)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link: %w", op, err)
	}

	return link, nil
}

func (s *Service) DeleteLink(ctx context.Context, owner, id string) (*entity.Link, error) {
	const op = "backend.Service.DeleteLink"

	link, err := s.links.DeleteLink(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to delete link: %w", op, err)
	}

	return link, nil
}

// ResolveSlug returns the link for slug and counts the visit.
func (s *Service) ResolveSlug(ctx context.Context, slug string) (*entity.Link, error) {
	const op = "backend.Service.ResolveSlug"

	link, err := s.links.VisitLink(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve slug: %w", op, err)
	}

	return link, nil
}

func (s *Service) Register(ctx context.Context, reg entity.Registration) (*entity.User, error) {
	const op = "backend.Service.Register"

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := s.users.SaveUser(ctx, Account{
		User: entity.User{
			ID:       uuid.NewString(),
			Name:     reg.Name,
			Username: reg.Username,
		},
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return user, nil
}

// Login checks the credentials and issues an access token. Unknown users and
// wrong passwords are both reported as entity.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, creds entity.Credentials) (string, error) {
	const op = "backend.Service.Login"

	acc, err := s.users.AccountByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return "", fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(creds.Password)); err != nil {
		return "", fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(acc.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// Authenticate returns the id of the user the token was issued to.
func (s *Service) Authenticate(token string) (string, error) {
	return s.tokens.Parse(token)
}
