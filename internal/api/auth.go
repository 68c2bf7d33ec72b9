package api

import (
	"context"
	"net/http"

	"github.com/vadimbarashkov/dlink/internal/entity"
)

type loginEnvelope struct {
	AccessToken string `json:"accessToken"`
}

type userEnvelope struct {
	Data entity.User `json:"data"`
}

// Login exchanges credentials for an access token. It does not touch the
// session; storing the token is up to the caller.
func (c *Client) Login(ctx context.Context, creds entity.Credentials) (string, error) {
	var resp loginEnvelope

	err := c.do(ctx, request{
		op:     "api.Client.Login",
		method: http.MethodPost,
		path:   "/auths/login",
		body:   creds,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.AccessToken == "" {
		return "", &Error{Op: "api.Client.Login", Outcome: OutcomeServerError, StatusCode: http.StatusOK, Message: "empty access token"}
	}

	return resp.AccessToken, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg entity.Registration) (*entity.User, error) {
	var resp userEnvelope

	err := c.do(ctx, request{
		op:     "api.Client.Register",
		method: http.MethodPost,
		path:   "/auths/register",
		body:   reg,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp.Data, nil
}
