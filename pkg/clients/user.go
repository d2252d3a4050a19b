package clients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/utafrali/shopmesh/pkg/httpclient"
)

// UserClient verifies credentials against the user service.
type UserClient struct{ peer }

// NewUserClient creates a client for the user service at baseURL.
func NewUserClient(baseURL string, doer httpclient.Doer) *UserClient {
	return &UserClient{newPeer("user-service", baseURL, doer)}
}

type loginResult struct {
	UUID string `json:"uuid"`
}

// Login forwards raw credentials unchanged and returns the user's id.
// Rejections keep the user service's status and message.
func (c *UserClient) Login(ctx context.Context, credentials json.RawMessage) (string, error) {
	var res loginResult
	if err := c.call(ctx, http.MethodPost, "/api/user/login/", credentials, &res); err != nil {
		return "", err
	}
	if res.UUID == "" {
		return "", errors.New("user-service login response has no uuid")
	}
	return res.UUID, nil
}
