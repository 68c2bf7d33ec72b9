// Package memory provides thread-safe in-memory repositories for the
// development backend.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vadimbarashkov/dlink/internal/backend"
	"github.com/vadimbarashkov/dlink/internal/entity"
)

type linkRecord struct {
	owner string
	link  entity.Link
}

// Repository stores links and accounts in maps guarded by one lock.
type Repository struct {
	mu       sync.RWMutex
	links    map[string]*linkRecord
	slugs    map[string]string
	accounts map[string]backend.Account
	now      func() time.Time
}

func New() *Repository {
	return &Repository{
		links:    make(map[string]*linkRecord),
		slugs:    make(map[string]string),
		accounts: make(map[string]backend.Account),
		now:      time.Now,
	}
}

func (r *Repository) SaveLink(ctx context.Context, owner string, link entity.Link) (*entity.Link, error) {
	const op = "memory.Repository.SaveLink"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slugs[link.Slug]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugExists)
	}

	now := r.now()
	link.Visited = 0
	link.CreatedAt = now
	link.UpdatedAt = now

	r.links[link.ID] = &linkRecord{owner: owner, link: link}
	r.slugs[link.Slug] = link.ID

	return &link, nil
}

func (r *Repository) ListLinks(ctx context.Context, owner string, q backend.ListQuery) (*entity.LinkPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		owned       []entity.Link
		mostVisited int64
	)
	for _, rec := range r.links {
		if rec.owner != owner {
			continue
		}
		owned = append(owned, rec.link)
		mostVisited = max(mostVisited, rec.link.Visited)
	}

	slices.SortFunc(owned, func(a, b entity.Link) int {
		if q.Sort == entity.SortByName {
			return cmp.Or(cmp.Compare(a.Slug, b.Slug), cmp.Compare(a.ID, b.ID))
		}
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	links := []entity.Link{}
	if from := q.Offset(); from < len(owned) {
		links = append(links, owned[from:min(from+q.Limit, len(owned))]...)
	}

	return &entity.LinkPage{
		Links: links,
		Pagination: entity.Pagination{
			Limit: q.Limit,
			Page:  q.Page,
			Total: len(owned),
		},
		Stats: entity.LinkStats{MostVisitedCount: mostVisited},
	}, nil
}

func (r *Repository) LinkByID(ctx context.Context, owner, id string) (*entity.Link, error) {
	const op = "memory.Repository.LinkByID"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.links[id]
	if !ok || rec.owner != owner {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	link := rec.link
	return &link, nil
}

func (r *Repository) UpdateLink(ctx context.Context, owner, id string, in entity.LinkInput) (*entity.Link, error) {
	const op = "memory.Repository.UpdateLink"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.links[id]
	if !ok || rec.owner != owner {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	if in.Slug != "" && in.Slug != rec.link.Slug {
		if _, taken := r.slugs[in.Slug]; taken {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugExists)
		}
		delete(r.slugs, rec.link.Slug)
		r.slugs[in.Slug] = id
		rec.link.Slug = in.Slug
	}

	rec.link.URL = in.URL
	rec.link.UpdatedAt = r.now()

	link := rec.link
	return &link, nil
}

func (r *Repository) DeleteLink(ctx context.Context, owner, id string) (*entity.Link, error) {
	const op = "memory.Repository.DeleteLink"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.links[id]
	if !ok || rec.owner != owner {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	delete(r.links, id)
	delete(r.slugs, rec.link.Slug)

	link := rec.link
	return &link, nil
}

func (r *Repository) VisitLink(ctx context.Context, slug string) (*entity.Link, error) {
	const op = "memory.Repository.VisitLink"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.slugs[slug]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	rec := r.links[id]
	rec.link.Visited++

	link := rec.link
	return &link, nil
}

func (r *Repository) SaveUser(ctx context.Context, acc backend.Account) (*entity.User, error) {
	const op = "memory.Repository.SaveUser"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acc.Username]; ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUserExists)
	}

	r.accounts[acc.Username] = acc

	user := acc.User
	return &user, nil
}

func (r *Repository) AccountByUsername(ctx context.Context, username string) (*backend.Account, error) {
	const op = "memory.Repository.AccountByUsername"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	acc, ok := r.accounts[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrUserNotFound)
	}

	return &acc, nil
}
