package bancoapi

import (
	"context"
	"net/http"

	"github.com/edubanco/recursos/core/session"
)

var _ session.API = (*Client)(nil)

type authPayload struct {
	User  session.User `json:"user"`
	Token string       `json:"token"`
}

func (c *Client) Login(ctx context.Context, creds session.Credentials) (session.Auth, error) {
	var data authPayload
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", creds, &data)
	if err != nil {
		return session.Auth{}, err
	}
	return session.Auth{User: data.User, Token: data.Token}, nil
}

func (c *Client) Register(ctx context.Context, acc session.NewAccount) (session.Auth, error) {
	// the confirmation field is a client-side check only
	body := struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		School   string `json:"school,omitempty"`
	}{acc.Name, acc.Email, acc.Password, acc.School}

	var data authPayload
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, "", body, &data); err != nil {
		return session.Auth{}, err
	}
	return session.Auth{User: data.User, Token: data.Token}, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, token, nil, nil)
}

func (c *Client) Verify(ctx context.Context, token string) (session.User, error) {
	var usr session.User
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, token, nil, &usr); err != nil {
		return session.User{}, err
	}
	return usr, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, up session.UpdateProfile) (session.User, error) {
	body := struct {
		Name   string `json:"name,omitempty"`
		School string `json:"school,omitempty"`
	}{up.Name, up.School}

	var usr session.User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, token, body, &usr); err != nil {
		return session.User{}, err
	}
	return usr, nil
}

func (c *Client) ChangePassword(ctx context.Context, token string, cp session.ChangePassword) error {
	return c.do(ctx, http.MethodPost, "/auth/change-password", nil, token, cp, nil)
}
