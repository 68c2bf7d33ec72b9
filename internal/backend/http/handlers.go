package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/dlink/internal/backend"
	"github.com/vadimbarashkov/dlink/internal/entity"
	"github.com/vadimbarashkov/dlink/pkg/response"
)

var (
	slugExistsResponse         = response.ErrorResponse("The slug is already taken.")
	userExistsResponse         = response.ErrorResponse("The username is already taken.")
	invalidCredentialsResponse = response.ErrorResponse("Wrong username or password.")
	invalidQueryResponse       = response.ErrorResponse("Invalid query parameters.")
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

func handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(swaggerDoc)
}

func fail(w http.ResponseWriter, r *http.Request, status int, resp response.Response) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}

func serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
	fail(w, r, http.StatusInternalServerError, response.ServerErrorResponse)
}

// bind decodes and validates the request body into v, writing a 400 on failure.
func bind(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			fail(w, r, http.StatusBadRequest, response.EmptyRequestBodyResponse)
			return false
		}

		fail(w, r, http.StatusBadRequest, response.BadRequestResponse)
		return false
	}

	if err := validate.Struct(v); err != nil {
		fail(w, r, http.StatusBadRequest, response.ValidationErrorResponse(err))
		return false
	}

	return true
}

type linkRequest struct {
	URL  string `json:"url" validate:"required,url"`
	Slug string `json:"slug" validate:"omitempty,min=4,max=32,alphanum"`
}

func (req linkRequest) input() entity.LinkInput {
	return entity.LinkInput{URL: req.URL, Slug: req.Slug}
}

func handleCreateLink(svc Service, validate *validator.Validate) http.HandlerFunc {
	const op = "backend.http.handleCreateLink"

	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest
		if !bind(w, r, validate, &req) {
			return
		}

		link, err := svc.ShortenLink(r.Context(), userID(r.Context()), req.input())
		if err != nil {
			if errors.Is(err, entity.ErrSlugExists) {
				fail(w, r, http.StatusBadRequest, slugExistsResponse)
				return
			}

			serverError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse("", link))
	}
}

func handleListLinks(svc Service) http.HandlerFunc {
	const op = "backend.http.handleListLinks"

	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r)
		if err != nil {
			fail(w, r, http.StatusBadRequest, invalidQueryResponse)
			return
		}

		page, err := svc.ListLinks(r.Context(), userID(r.Context()), q)
		if err != nil {
			serverError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.PageResponse(page.Links, page.Pagination, page.Stats))
	}
}

func parseListQuery(r *http.Request) (backend.ListQuery, error) {
	var (
		q   backend.ListQuery
		err error
	)

	values := r.URL.Query()

	if s := values.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := values.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil {
			return q, err
		}
	}
	if s := values.Get("sort"); s != "" {
		if q.Sort, err = entity.ParseSortKey(s); err != nil {
			return q, err
		}
	}

	return q, nil
}

func handleGetLink(svc Service) http.HandlerFunc {
	const op = "backend.http.handleGetLink"

	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.GetLink(r.Context(), userID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				fail(w, r, http.StatusNotFound, response.ResourceNotFoundResponse)
				return
			}

			serverError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse("", link))
	}
}

func handleUpdateLink(svc Service, validate *validator.Validate) http.HandlerFunc {
	const op = "backend.http.handleUpdateLink"

	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest
		if !bind(w, r, validate, &req) {
			return
		}

		link, err := svc.UpdateLink(r.Context(), userID(r.Context()), chi.URLParam(r, "id"), req.input())
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrLinkNotFound):
				fail(w, r, http.StatusNotFound, response.ResourceNotFoundResponse)
			case errors.Is(err, entity.ErrSlugExists):
				fail(w, r, http.StatusBadRequest, slugExistsResponse)
			default:
				serverError(w, r, op, err)
			}
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse("", link))
	}
}

type deletedLinkResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

func handleDeleteLink(svc Service) http.HandlerFunc {
	const op = "backend.http.handleDeleteLink"

	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.DeleteLink(r.Context(), userID(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				fail(w, r, http.StatusNotFound, response.ResourceNotFoundResponse)
				return
			}

			serverError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse("", deletedLinkResponse{
			ID:   link.ID,
			Slug: link.Slug,
			URL:  link.URL,
		}))
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"accessToken"`
}

func handleLogin(svc Service, validate *validator.Validate) http.HandlerFunc {
	const op = "backend.http.handleLogin"

	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !bind(w, r, validate, &req) {
			return
		}

		token, err := svc.Login(r.Context(), entity.Credentials{Username: req.Username, Password: req.Password})
		if err != nil {
			if errors.Is(err, entity.ErrInvalidCredentials) {
				fail(w, r, http.StatusBadRequest, invalidCredentialsResponse)
				return
			}

			serverError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, loginResponse{Status: response.StatusSuccess, AccessToken: token})
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=4"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=3"`
}

func handleRegister(svc Service, validate *validator.Validate) http.HandlerFunc {
	const op = "backend.http.handleRegister"

	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !bind(w, r, validate, &req) {
			return
		}

		user, err := svc.Register(r.Context(), entity.Registration{
			Username: req.Username,
			Password: req.Password,
			Name:     req.Name,
		})
		if err != nil {
			if errors.Is(err, entity.ErrUserExists) {
				fail(w, r, http.StatusBadRequest, userExistsResponse)
				return
			}

			serverError(w, r, op, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse("", user))
	}
}

func handleRedirect(svc Service) http.HandlerFunc {
	const op = "backend.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		link, err := svc.ResolveSlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			if errors.Is(err, entity.ErrLinkNotFound) {
				fail(w, r, http.StatusNotFound, response.ResourceNotFoundResponse)
				return
			}

			serverError(w, r, op, err)
			return
		}

		http.Redirect(w, r, link.URL, http.StatusFound)
	}
}
