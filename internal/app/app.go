// Package app wires and runs the development backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/dlink/internal/backend"
	"github.com/vadimbarashkov/dlink/internal/backend/memory"
	"github.com/vadimbarashkov/dlink/internal/backend/postgres"
	"github.com/vadimbarashkov/dlink/internal/config"
	"golang.org/x/sync/errgroup"

	backendhttp "github.com/vadimbarashkov/dlink/internal/backend/http"
	pgutil "github.com/vadimbarashkov/dlink/pkg/postgres"
)

type repository interface {
	backend.LinkRepository
	backend.UserRepository
}

// NewHandler builds the backend HTTP handler over repo.
func NewHandler(cfg *config.Config, logger *httplog.Logger, links backend.LinkRepository, users backend.UserRepository) http.Handler {
	tokens := backend.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	svc := backend.NewService(cfg.SlugLength, links, users, tokens)

	return backendhttp.NewRouter(logger, svc, cfg.HTTPServer.AllowedOrigins)
}

// Run serves the backend until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	g, ctx := errgroup.WithContext(ctx)

	var repo repository

	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := pgutil.Connect(ctx, cfg.Postgres.DSN(), pgutil.Pool{
			MaxIdleTime:  cfg.Postgres.ConnMaxIdleTime,
			MaxLifetime:  cfg.Postgres.ConnMaxLifetime,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return fmt.Errorf("%s: failed to connect to database: %w", op, err)
		}
		if err := postgres.Migrate(cfg.Postgres.DSN()); err != nil {
			db.Close()
			return fmt.Errorf("%s: failed to run migrations: %w", op, err)
		}
		g.Go(func() error {
			<-ctx.Done()
			return db.Close()
		})

		repo = postgres.NewRepository(db)
	case config.StorageMemory, "":
		repo = memory.New()
	default:
		return fmt.Errorf("%s: unknown storage %q", op, cfg.Storage)
	}

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        NewHandler(cfg, logger, repo, repo),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "storage", cfg.Storage)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
