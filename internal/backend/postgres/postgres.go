// Package postgres stores links and accounts of the development backend in
// PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/dlink/internal/backend"
	"github.com/vadimbarashkov/dlink/internal/entity"

	pgutil "github.com/vadimbarashkov/dlink/pkg/postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema at dsn up to date.
func Migrate(dsn string) error {
	return pgutil.RunMigrations(migrations, "migrations", dsn)
}

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

func nullable(owner string) sql.NullString {
	return sql.NullString{String: owner, Valid: owner != ""}
}

var orderBy = map[entity.SortKey]string{
	entity.SortByName: "slug ASC, id ASC",
	entity.SortByDate: "created_at DESC, id ASC",
}

type linkDB struct {
	ID        string    `db:"id"`
	Slug      string    `db:"slug"`
	URL       string    `db:"url"`
	Visited   int64     `db:"visited"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (l *linkDB) toEntity() *entity.Link {
	return &entity.Link{
		ID:        l.ID,
		Slug:      l.Slug,
		URL:       l.URL,
		Visited:   l.Visited,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

type accountDB struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	Name         string `db:"name"`
	PasswordHash []byte `db:"password_hash"`
}

func (a *accountDB) toAccount() *backend.Account {
	return &backend.Account{
		User: entity.User{
			ID:       a.ID,
			Name:     a.Name,
			Username: a.Username,
		},
		PasswordHash: a.PasswordHash,
	}
}

const linkColumns = `id, slug, url, visited, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) SaveLink(ctx context.Context, owner string, link entity.Link) (*entity.Link, error) {
	const op = "postgres.Repository.SaveLink"
	const query = `INSERT INTO links(id, owner_id, slug, url) VALUES ($1, $2, $3, $4) RETURNING ` + linkColumns

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, link.ID, nullable(owner), link.Slug, link.URL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *Repository) ListLinks(ctx context.Context, owner string, q backend.ListQuery) (*entity.LinkPage, error) {
	const op = "postgres.Repository.ListLinks"
	const statsQuery = `SELECT COUNT(*) AS total, COALESCE(MAX(visited), 0) AS most_visited FROM links WHERE owner_id = $1`

	order, ok := orderBy[q.Sort]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidSortKey)
	}

	var stats struct {
		Total       int   `db:"total"`
		MostVisited int64 `db:"most_visited"`
	}

	if err := r.db.GetContext(ctx, &stats, statsQuery, nullable(owner)); err != nil {
		return nil, fmt.Errorf("%s: failed to count links: %w", op, err)
	}

	query := `SELECT ` + linkColumns + ` FROM links WHERE owner_id = $1 ORDER BY ` + order + ` LIMIT $2 OFFSET $3`

	var rows []linkDB

	if err := r.db.SelectContext(ctx, &rows, query, nullable(owner), q.Limit, q.Offset()); err != nil {
		return nil, fmt.Errorf("%s: failed to select from links table: %w", op, err)
	}

	links := make([]entity.Link, 0, len(rows))
	for _, row := range rows {
		links = append(links, *row.toEntity())
	}

	return &entity.LinkPage{
		Links: links,
		Pagination: entity.Pagination{
			Limit: q.Limit,
			Page:  q.Page,
			Total: stats.Total,
		},
		Stats: entity.LinkStats{MostVisitedCount: stats.MostVisited},
	}, nil
}

func (r *Repository) LinkByID(ctx context.Context, owner, id string) (*entity.Link, error) {
	const op = "postgres.Repository.LinkByID"
	const query = `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND owner_id = $2`

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, id, nullable(owner)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *Repository) UpdateLink(ctx context.Context, owner, id string, in entity.LinkInput) (*entity.Link, error) {
	const op = "postgres.Repository.UpdateLink"
	const query = `UPDATE links SET url = $1, slug = COALESCE(NULLIF($2, ''), slug), updated_at = NOW()
		WHERE id = $3 AND owner_id = $4 RETURNING ` + linkColumns

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, in.URL, in.Slug, id, nullable(owner)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugExists)
		}

		return nil, fmt.Errorf("%s: failed to update links table row: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *Repository) DeleteLink(ctx context.Context, owner, id string) (*entity.Link, error) {
	const op = "postgres.Repository.DeleteLink"
	const query = `DELETE FROM links WHERE id = $1 AND owner_id = $2 RETURNING ` + linkColumns

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, id, nullable(owner)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to delete from links table: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *Repository) VisitLink(ctx context.Context, slug string) (*entity.Link, error) {
	const op = "postgres.Repository.VisitLink"
	const query = `UPDATE links SET visited = visited + 1 WHERE slug = $1 RETURNING ` + linkColumns

	var l linkDB

	if err := r.db.GetContext(ctx, &l, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get and update links table row: %w", op, err)
	}

	return l.toEntity(), nil
}

func (r *Repository) SaveUser(ctx context.Context, acc backend.Account) (*entity.User, error) {
	const op = "postgres.Repository.SaveUser"
	const query = `INSERT INTO users(id, username, name, password_hash) VALUES ($1, $2, $3, $4)
		RETURNING id, username, name, password_hash`

	var a accountDB

	if err := r.db.GetContext(ctx, &a, query, acc.ID, acc.Username, acc.Name, acc.PasswordHash); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUserExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into users table: %w", op, err)
	}

	return &a.toAccount().User, nil
}

func (r *Repository) AccountByUsername(ctx context.Context, username string) (*backend.Account, error) {
	const op = "postgres.Repository.AccountByUsername"
	const query = `SELECT id, username, name, password_hash FROM users WHERE username = $1`

	var a accountDB

	if err := r.db.GetContext(ctx, &a, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from users table: %w", op, err)
	}

	return a.toAccount(), nil
}
