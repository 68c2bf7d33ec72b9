// Package http exposes the development backend over the REST contract the
// client consumes.
package http

import (
	"context"
	_ "embed"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/dlink/internal/backend"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/pkg/middleware/recoverer"
)

//go:embed docs/swagger.yml
var swaggerDoc []byte

// Service is the business logic behind the handlers.
type Service interface {
	// ShortenLink saves a link for owner, generating a slug when none is given.
	ShortenLink(ctx context.Context, owner string, in entity.LinkInput) (*entity.Link, error)
	// ListLinks returns one page of owner's links with pagination and stats.
	ListLinks(ctx context.Context, owner string, q backend.ListQuery) (*entity.LinkPage, error)
	GetLink(ctx context.Context, owner, id string) (*entity.Link, error)
	UpdateLink(ctx context.Context, owner, id string, in entity.LinkInput) (*entity.Link, error)
	DeleteLink(ctx context.Context, owner, id string) (*entity.Link, error)
	// ResolveSlug returns the link behind slug and counts the visit.
	ResolveSlug(ctx context.Context, slug string) (*entity.Link, error)
	Register(ctx context.Context, reg entity.Registration) (*entity.User, error)
	// Login returns an access token for valid credentials.
	Login(ctx context.Context, creds entity.Credentials) (string, error)
	// Authenticate returns the user id an access token was issued to.
	Authenticate(token string) (string, error)
}

func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter returns the handler serving the REST API and the short link redirects.
func NewRouter(logger *httplog.Logger, svc Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	validate := getValidate()

	r.Get("/ping", handlePing)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", handleSwaggerDoc)

	r.Route("/links", func(r chi.Router) {
		r.With(optionalAuth(svc)).Post("/public", handleCreateLink(svc, validate))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(svc))

			r.Get("/", handleListLinks(svc))
			r.Get("/{id}", handleGetLink(svc))
			r.Put("/{id}", handleUpdateLink(svc, validate))
			r.Delete("/{id}", handleDeleteLink(svc))
		})
	})

	r.Route("/auths", func(r chi.Router) {
		r.Post("/login", handleLogin(svc, validate))
		r.Post("/register", handleRegister(svc, validate))
	})

	r.Get("/{slug}", handleRedirect(svc))

	return r
}
