package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLink(t *testing.T) {
	tests := []struct {
		name string
		form LinkForm
		want Errors
	}{
		{
			name: "valid without slug",
			form: LinkForm{URL: "https://example.com", Slug: ""},
		},
		{
			name: "valid with slug",
			form: LinkForm{URL: "https://example.com/really/long?q=1", Slug: "abcd"},
		},
		{
			name: "empty url",
			form: LinkForm{URL: "", Slug: ""},
			want: Errors{"url": "URL is required and must be a proper URL"},
		},
		{
			name: "malformed url",
			form: LinkForm{URL: "not a url", Slug: "abcd"},
			want: Errors{"url": "URL is required and must be a proper URL"},
		},
		{
			name: "short slug",
			form: LinkForm{URL: "https://example.com", Slug: "abc"},
			want: Errors{"slug": "Custom ID must be 4 or more characters long"},
		},
		{
			name: "both invalid",
			form: LinkForm{URL: "nope", Slug: "a"},
			want: Errors{
				"url":  "URL is required and must be a proper URL",
				"slug": "Custom ID must be 4 or more characters long",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLink(tt.form)

			if tt.want == nil {
				assert.NoError(t, err)
				return
			}

			var errs Errors
			require.ErrorAs(t, err, &errs)
			assert.Equal(t, tt.want, errs)
		})
	}
}

func TestValidateLink_SlugLengths(t *testing.T) {
	for _, slug := range []string{"a", "ab", "abc"} {
		err := ValidateLink(LinkForm{URL: "https://example.com", Slug: slug})

		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Len(t, errs, 1)
		assert.NotEmpty(t, errs.Field("slug"))
	}

	for _, slug := range []string{"", "abcd", "abcdefghijkl"} {
		assert.NoError(t, ValidateLink(LinkForm{URL: "https://example.com", Slug: slug}))
	}
}

func TestValidateLogin(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateLogin(LoginForm{Username: "u", Password: "p"}))
	})

	t.Run("empty fields", func(t *testing.T) {
		err := ValidateLogin(LoginForm{})

		var errs Errors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, Errors{
			"username": "Username is required",
			"password": "Password is required",
		}, errs)
	})
}

func TestValidateRegister(t *testing.T) {
	valid := RegisterForm{
		Fullname:        "John Doe",
		Username:        "johnd",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateRegister(valid))
	})

	t.Run("password mismatch", func(t *testing.T) {
		form := valid
		form.ConfirmPassword = "secret2"

		var errs Errors
		require.ErrorAs(t, ValidateRegister(form), &errs)
		assert.Equal(t, Errors{"confirmPassword": "Password and Confirm Password don't match"}, errs)
	})

	t.Run("empty confirm password", func(t *testing.T) {
		form := valid
		form.ConfirmPassword = ""

		var errs Errors
		require.ErrorAs(t, ValidateRegister(form), &errs)
		assert.Equal(t, Errors{"confirmPassword": "Confirm password is required and must matches with password"}, errs)
	})

	t.Run("length rules", func(t *testing.T) {
		form := RegisterForm{
			Fullname:        "Jo",
			Username:        "joh",
			Password:        "12345",
			ConfirmPassword: "12345",
		}

		var errs Errors
		require.ErrorAs(t, ValidateRegister(form), &errs)
		assert.Equal(t, Errors{
			"fullname": "Name is required and must be 3 or more characters long",
			"username": "Username is required and must be 4 or more characters long",
			"password": "Password is required and must be 6 or more characters long",
		}, errs)
	})
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{"url": "bad url", "slug": "bad slug"}

	assert.Equal(t, "validation error: slug: bad slug; url: bad url", errs.Error())
}
