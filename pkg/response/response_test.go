package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encode writes resp the way the handlers do and returns the body.
func encode(t *testing.T, resp Response) string {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	render.JSON(rec, req, resp)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	return rec.Body.String()
}

func TestEnvelope(t *testing.T) {
	type link struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}

	tests := []struct {
		name string
		resp Response
		want string
	}{
		{
			name: "error",
			resp: UnauthorizedResponse,
			want: `{"status":"error","message":"Authentication is required to access this resource."}`,
		},
		{
			name: "success without data",
			resp: SuccessResponse("Link deleted."),
			want: `{"status":"success","message":"Link deleted."}`,
		},
		{
			name: "success keeps the first item only",
			resp: SuccessResponse("", link{ID: "1", Slug: "xyzAB"}, link{ID: "2"}),
			want: `{"status":"success","data":{"id":"1","slug":"xyzAB"}}`,
		},
		{
			name: "page",
			resp: PageResponse(
				[]link{{ID: "1", Slug: "xyzAB"}},
				map[string]int{"limit": 6, "page": 1, "total": 1},
				map[string]int64{"mostVisitedCount": 3},
			),
			want: `{"status":"success","data":[{"id":"1","slug":"xyzAB"}],` +
				`"pagination":{"limit":6,"page":1,"total":1},"extra":{"mostVisitedCount":3}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, encode(t, tt.resp))
		})
	}
}

func TestValidationErrorResponse(t *testing.T) {
	type form struct {
		URL  string `json:"url" validate:"required,url"`
		Slug string `json:"slug" validate:"omitempty,min=4,max=8,alphanum"`
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	t.Run("issues per field", func(t *testing.T) {
		err := validate.Struct(form{URL: "example", Slug: "a-b"})
		require.Error(t, err)

		resp := ValidationErrorResponse(err)

		assert.Equal(t, StatusError, resp.Status)
		assert.Equal(t, "Validation failed. Please check your input.", resp.Message)
		assert.Equal(t, []validationError{
			{Field: "url", Value: "example", Issue: "Invalid url."},
			{Field: "slug", Value: "a-b", Issue: "Must be at least 4 characters long."},
		}, resp.Details)
	})

	t.Run("issue texts", func(t *testing.T) {
		cases := map[string]form{
			"This field is required.":               {},
			"Must be at most 8 characters long.":    {URL: "https://example.com", Slug: "abcdefghij"},
			"Must contain only letters and digits.": {URL: "https://example.com", Slug: "abc-def"},
		}

		for want, f := range cases {
			resp := ValidationErrorResponse(validate.Struct(f))

			require.Len(t, resp.Details, 1, want)
			assert.Equal(t, want, resp.Details[0].Issue)
		}
	})

	t.Run("not a validation error", func(t *testing.T) {
		resp := ValidationErrorResponse(errors.New("boom"))

		assert.Empty(t, resp.Details)
		assert.JSONEq(t, `{"status":"error","message":"Validation failed. Please check your input."}`, encode(t, resp))
	})
}
