// Package collection drives the paginated, sorted listing of the signed-in
// user's links.
//
// A Collection tracks the active (page, sort) key. Every call takes its own
// generation number, while calls for the same key share one in-flight request.
// A response is only rendered if its key is still active and no later call has
// already been rendered. Loaded pages may be kept in a cache until a mutation
// invalidates them.
package collection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/vadimbarashkov/dlink/internal/api"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"golang.org/x/sync/singleflight"
)

// DefaultPageSize is the number of links shown per page.
const DefaultPageSize = 6

// ErrSuperseded is returned when a fetch resolved after a newer one had
// replaced it. The returned View is the one currently rendered.
var ErrSuperseded = errors.New("fetch superseded by a newer one")

// Fetcher retrieves one page of links.
type Fetcher interface {
	ListLinks(ctx context.Context, p api.ListParams) (*entity.LinkPage, error)
}

// Key identifies a fetch.
type Key struct {
	Page int
	Sort entity.SortKey
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%s", k.Page, k.Sort)
}

// State is the pagination state: the active key plus the last known total.
type State struct {
	Page    int
	Sort    entity.SortKey
	Total   int
	MaxPage int
}

// View is what gets rendered for the active key.
type View struct {
	Key              Key
	Links            []entity.Link
	Total            int
	MostVisitedCount int64
	MaxPage          int
	Loaded           bool
}

// result is the outcome of one fetch. epoch is the cache epoch the fetch was
// issued in.
type result struct {
	key   Key
	epoch uint64
	page  *entity.LinkPage
}

// Collection is the link list view-model.
type Collection struct {
	fetcher  Fetcher
	pageSize int
	group    singleflight.Group
	cache    *ristretto.Cache
	cacheTTL time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	key     Key
	total   int
	issued  uint64
	applied uint64
	epoch   uint64
	shown   *entity.LinkPage
	view    View
}

// Option configures a Collection.
type Option func(*Collection)

// WithPageSize sets the number of links per page.
func WithPageSize(n int) Option {
	return func(c *Collection) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithSort sets the initial sort key.
func WithSort(sort entity.SortKey) Option {
	return func(c *Collection) {
		c.key.Sort = sort
	}
}

// WithPage sets the initial page. A page beyond the last one is moved to the
// last page on the first load.
func WithPage(page int) Option {
	return func(c *Collection) {
		if page > 0 {
			c.key.Page = page
		}
	}
}

// WithCache keeps fetched pages in cache for ttl. A zero ttl keeps them until invalidated.
func WithCache(cache *ristretto.Cache, ttl time.Duration) Option {
	return func(c *Collection) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// New creates a Collection positioned on page 1 sorted by date.
func New(fetcher Fetcher, opts ...Option) *Collection {
	c := &Collection{
		fetcher:  fetcher,
		pageSize: DefaultPageSize,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		key:      Key{Page: 1, Sort: entity.SortByDate},
		total:    1,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.view = View{
		Key:     c.key,
		Links:   []entity.Link{},
		MaxPage: c.maxPageLocked(),
	}

	return c
}

// NewPageCache creates a cache sized for maxPages pages.
func NewPageCache(maxPages int64) (*ristretto.Cache, error) {
	const op = "collection.NewPageCache"

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxPages * 10,
		MaxCost:            maxPages,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create cache: %w", op, err)
	}

	return cache, nil
}

// MaxPage returns the number of pages needed for total links. A total of zero
// still yields one page.
func MaxPage(total, pageSize int) int {
	if total < 1 {
		total = 1
	}
	return (total + pageSize - 1) / pageSize
}

// State returns the pagination state.
func (c *Collection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Page:    c.key.Page,
		Sort:    c.key.Sort,
		Total:   c.total,
		MaxPage: c.maxPageLocked(),
	}
}

// View returns the view currently rendered.
func (c *Collection) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.viewLocked()
}

// Load fetches the active page.
func (c *Collection) Load(ctx context.Context) (View, error) {
	return c.loadActive(ctx, false)
}

// Refresh drops cached pages and fetches the active page from the server.
func (c *Collection) Refresh(ctx context.Context) (View, error) {
	c.Invalidate()
	return c.loadActive(ctx, true)
}

// Invalidate drops cached pages so the next Load reflects server-side changes.
// Fetches issued before the call still render but are not cached.
func (c *Collection) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Next moves to the following page. On the last page it does nothing.
func (c *Collection) Next(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.key.Page >= c.maxPageLocked() {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, nil
	}
	c.key.Page++
	c.mu.Unlock()

	return c.loadActive(ctx, false)
}

// Prev moves to the preceding page. On the first page it does nothing.
func (c *Collection) Prev(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.key.Page <= 1 {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, nil
	}
	c.key.Page--
	c.mu.Unlock()

	return c.loadActive(ctx, false)
}

// SortBy switches the ordering and fetches the current page under it. The page
// number is kept. Selecting the active sort does nothing.
func (c *Collection) SortBy(ctx context.Context, sort entity.SortKey) (View, error) {
	if _, err := entity.ParseSortKey(string(sort)); err != nil {
		return c.View(), err
	}

	c.mu.Lock()
	if c.key.Sort == sort {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, nil
	}
	c.key.Sort = sort
	c.mu.Unlock()

	return c.loadActive(ctx, false)
}

func (c *Collection) loadActive(ctx context.Context, fresh bool) (View, error) {
	c.mu.Lock()
	key := c.key
	c.mu.Unlock()

	view, err := c.load(ctx, key, fresh)
	if err != nil || view.Key.Page <= view.MaxPage {
		return view, err
	}

	// The total shrank below the active page, e.g. after the last link on the
	// last page was deleted.
	c.mu.Lock()
	if c.key != view.Key {
		v := c.viewLocked()
		c.mu.Unlock()
		return v, ErrSuperseded
	}
	c.key.Page = view.MaxPage
	key = c.key
	c.mu.Unlock()

	c.logger.Debug("page out of range, moving to last page", slog.Int("page", key.Page))

	return c.load(ctx, key, fresh)
}

func (c *Collection) load(ctx context.Context, key Key, fresh bool) (View, error) {
	c.mu.Lock()
	c.issued++
	gen := c.issued
	epoch := c.epoch
	c.mu.Unlock()

	if !fresh {
		if page, ok := c.cached(key); ok {
			return c.apply(result{key: key, epoch: epoch, page: page}, gen)
		}
	} else {
		c.group.Forget(key.String())
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		c.mu.Lock()
		fetchEpoch := c.epoch
		c.mu.Unlock()

		c.logger.Debug("fetching links", slog.String("key", key.String()), slog.Uint64("gen", gen))

		page, err := c.fetcher.ListLinks(context.WithoutCancel(ctx), api.ListParams{
			Limit: c.pageSize,
			Page:  key.Page,
			Sort:  key.Sort,
		})
		if err != nil {
			return nil, err
		}

		return result{key: key, epoch: fetchEpoch, page: page}, nil
	})

	select {
	case <-ctx.Done():
		return c.View(), ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.mu.Lock()
			defer c.mu.Unlock()

			if c.key != key {
				return c.viewLocked(), ErrSuperseded
			}
			return c.viewLocked(), res.Err
		}

		return c.apply(res.Val.(result), gen)
	}
}

// apply renders r for the call with generation gen.
func (c *Collection) apply(r result, gen uint64) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.key != c.key {
		c.logger.Debug("discarding page of inactive key", slog.String("key", r.key.String()), slog.Uint64("gen", gen))
		return c.viewLocked(), ErrSuperseded
	}
	if r.page == c.shown {
		// Another caller sharing the same fetch already rendered it.
		return c.viewLocked(), nil
	}
	if gen < c.applied {
		c.logger.Debug("discarding stale page", slog.String("key", r.key.String()), slog.Uint64("gen", gen))
		return c.viewLocked(), ErrSuperseded
	}

	c.applied = gen
	c.shown = r.page
	c.total = r.page.Pagination.Total
	if c.total < 1 {
		c.total = 1
	}

	links := make([]entity.Link, len(r.page.Links))
	copy(links, r.page.Links)

	c.view = View{
		Key:              r.key,
		Links:            links,
		Total:            r.page.Pagination.Total,
		MostVisitedCount: r.page.Stats.MostVisitedCount,
		MaxPage:          c.maxPageLocked(),
		Loaded:           true,
	}

	if c.cache != nil && r.epoch == c.epoch {
		c.cache.SetWithTTL(r.key.String(), r.page, 1, c.cacheTTL)
		c.cache.Wait()
	}

	return c.viewLocked(), nil
}

func (c *Collection) cached(key Key) (*entity.LinkPage, bool) {
	if c.cache == nil {
		return nil, false
	}

	c.mu.Lock()
	v, ok := c.cache.Get(key.String())
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	page, ok := v.(*entity.LinkPage)
	return page, ok
}

func (c *Collection) maxPageLocked() int {
	return MaxPage(c.total, c.pageSize)
}

func (c *Collection) viewLocked() View {
	v := c.view
	v.Links = append([]entity.Link(nil), c.view.Links...)
	return v
}
