// Package postgres opens sqlx handles over the pgx driver and applies
// embedded schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Pool tunes the connection pool of a handle. Zero fields fall back to DefaultPool.
type Pool struct {
	MaxIdleTime  time.Duration
	MaxLifetime  time.Duration
	MaxIdleConns int
	MaxOpenConns int
}

var DefaultPool = Pool{
	MaxIdleTime:  5 * time.Minute,
	MaxLifetime:  30 * time.Minute,
	MaxIdleConns: 5,
	MaxOpenConns: 25,
}

func (p Pool) withDefaults() Pool {
	if p.MaxIdleTime <= 0 {
		p.MaxIdleTime = DefaultPool.MaxIdleTime
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = DefaultPool.MaxLifetime
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultPool.MaxIdleConns
	}
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultPool.MaxOpenConns
	}
	return p
}

const (
	connectAttempts = 5
	connectInterval = time.Second
)

// Connect opens a handle to dsn and waits until the server answers. A server
// that is still starting up is retried a few times before giving up.
func Connect(ctx context.Context, dsn string, pool Pool) (*sqlx.DB, error) {
	const op = "postgres.Connect"

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database: %w", op, err)
	}

	pool = pool.withDefaults()
	db.SetConnMaxIdleTime(pool.MaxIdleTime)
	db.SetConnMaxLifetime(pool.MaxLifetime)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetMaxOpenConns(pool.MaxOpenConns)

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(connectInterval):
		}
	}

	db.Close()
	return nil, fmt.Errorf("%s: database unreachable after %d attempts: %w", op, connectAttempts, err)
}
