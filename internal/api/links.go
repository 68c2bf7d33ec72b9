package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vadimbarashkov/dlink/internal/entity"
)

type linkEnvelope struct {
	Data entity.Link `json:"data"`
}

type listEnvelope struct {
	Data       []entity.Link     `json:"data"`
	Pagination entity.Pagination `json:"pagination"`
	Extra      entity.LinkStats  `json:"extra"`
}

// ListParams selects a page of links.
type ListParams struct {
	Limit int
	Page  int
	Sort  entity.SortKey
}

// CreateLink shortens a URL. Authentication is optional: the token is sent
// when present so the backend can attribute the link to the user.
func (c *Client) CreateLink(ctx context.Context, in entity.LinkInput) (*entity.Link, error) {
	var resp linkEnvelope

	err := c.do(ctx, request{
		op:     "api.Client.CreateLink",
		method: http.MethodPost,
		path:   "/links/public",
		body:   in,
		attach: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp.Data, nil
}

// ListLinks returns one page of the signed-in user's links.
func (c *Client) ListLinks(ctx context.Context, p ListParams) (*entity.LinkPage, error) {
	var resp listEnvelope

	query := url.Values{}
	query.Set("limit", strconv.Itoa(p.Limit))
	query.Set("page", strconv.Itoa(p.Page))
	query.Set("sort", string(p.Sort))

	err := c.do(ctx, request{
		op:     "api.Client.ListLinks",
		method: http.MethodGet,
		path:   "/links",
		query:  query,
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	links := resp.Data
	if links == nil {
		links = []entity.Link{}
	}

	return &entity.LinkPage{
		Links:      links,
		Pagination: resp.Pagination,
		Stats:      resp.Extra,
	}, nil
}

// GetLink returns a single link of the signed-in user.
func (c *Client) GetLink(ctx context.Context, id string) (*entity.Link, error) {
	var resp linkEnvelope

	err := c.do(ctx, request{
		op:     "api.Client.GetLink",
		method: http.MethodGet,
		path:   "/links/" + url.PathEscape(id),
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp.Data, nil
}

// UpdateLink replaces the URL and slug of a link.
func (c *Client) UpdateLink(ctx context.Context, id string, in entity.LinkInput) (*entity.Link, error) {
	var resp linkEnvelope

	err := c.do(ctx, request{
		op:     "api.Client.UpdateLink",
		method: http.MethodPut,
		path:   "/links/" + url.PathEscape(id),
		body:   in,
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp.Data, nil
}

// DeleteLink removes a link and returns its id, slug and url.
func (c *Client) DeleteLink(ctx context.Context, id string) (*entity.Link, error) {
	var resp linkEnvelope

	err := c.do(ctx, request{
		op:     "api.Client.DeleteLink",
		method: http.MethodDelete,
		path:   "/links/" + url.PathEscape(id),
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp.Data, nil
}
