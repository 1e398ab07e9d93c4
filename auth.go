package tiramisu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
)

const (
	registerPath  = "api/user/register/"
	tokenAuthPath = "api/token-auth/"
)

// RegisterUser creates the account of the session user.
func (c *Client) RegisterUser(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.send(ctx, http.MethodPost, registerPath, Params{
		"username": c.username,
		"password": c.password,
	}, nil, false)
	if err != nil {
		c.log.Errorf("[Tiramisu] Could not register user %s: %v", c.username, err)
		return nil, err
	}
	c.log.Infof("[Tiramisu] Registered user %s", c.username)
	return raw, nil
}

// obtainToken exchanges the credentials for an API token.
func (c *Client) obtainToken(ctx context.Context) (string, error) {
	raw, err := c.send(ctx, http.MethodPost, tokenAuthPath, Params{
		"username": c.username,
		"password": c.password,
	}, nil, false)
	if err != nil {
		var reqErr *Error
		if errors.As(err, &reqErr) && reqErr.StatusCode != 0 {
			authErr := *reqErr
			authErr.Type = AuthenticationError
			authErr.Message = "token exchange rejected"
			return "", &authErr
		}
		return "", err
	}
	token := gjson.GetBytes(raw, "token")
	if token.String() == "" {
		return "", &Error{
			Type:    AuthenticationError,
			Method:  http.MethodPost,
			Path:    tokenAuthPath,
			Body:    string(raw),
			Message: "token missing in response",
		}
	}
	return token.String(), nil
}
