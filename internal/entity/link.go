// Package entity defines the entities and errors shared by the client and the
// development backend. It includes the Link struct, which represents a shortened
// URL owned by a user, its paginated listing, and the account types used for
// authentication.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrLinkNotFound is returned when a link with the specified id or slug cannot be found.
	ErrLinkNotFound = errors.New("link not found")
	// ErrSlugExists is returned when attempting to save a link with a slug that is already taken.
	ErrSlugExists = errors.New("slug exists")
	// ErrInvalidSortKey is returned when a sort key is neither "name" nor "date".
	ErrInvalidSortKey = errors.New("invalid sort key")
)

// Link represents a shortened URL.
type Link struct {
	ID        string    `json:"id"`        // ID is the server-assigned identifier of the link.
	Slug      string    `json:"slug"`      // Slug is the short alias the redirect resolves.
	URL       string    `json:"url"`       // URL is the target the slug redirects to.
	Visited   int64     `json:"visited"`   // Visited counts redirects served for the slug.
	CreatedAt time.Time `json:"createdAt"` // CreatedAt is the timestamp when the link was created.
	UpdatedAt time.Time `json:"updatedAt"` // UpdatedAt is the timestamp when the link was last updated.
}

// LinkInput is the payload for creating or updating a link. An empty Slug
// asks the server to generate one.
type LinkInput struct {
	URL  string `json:"url"`
	Slug string `json:"slug,omitempty"`
}

// SortKey selects the ordering of a link listing.
type SortKey string

const (
	SortByName SortKey = "name"
	SortByDate SortKey = "date"
)

// ParseSortKey converts s into a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortByName, SortByDate:
		return SortKey(s), nil
	default:
		return "", ErrInvalidSortKey
	}
}

// Pagination describes which slice of a listing a page holds.
type Pagination struct {
	Limit int `json:"limit"`
	Page  int `json:"page"`
	Total int `json:"total"`
}

// LinkStats contains statistics computed over all links of a user.
type LinkStats struct {
	MostVisitedCount int64 `json:"mostVisitedCount"`
}

// LinkPage is one page of a user's links.
type LinkPage struct {
	Links      []Link
	Pagination Pagination
	Stats      LinkStats
}
