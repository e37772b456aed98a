package client

import (
	"context"
	"net/http"

	"github.com/darmiel/callsign/internal/api"
	"github.com/darmiel/callsign/internal/core"
)

type userSigResponse struct {
	Success bool                  `json:"success"`
	Data    core.IssuedCredential `json:"data"`
}

// GenerateUserSig requests a call credential for userID, authenticating with
// the caller's identity provider session token. The cache is not consulted.
func (c *Client) GenerateUserSig(ctx context.Context, sessionToken, userID string) (*core.IssuedCredential, string, error) {
	req, err := newJSONRequest(ctx, c.url().
		setPath(api.UserSigRoute).
		build(), api.UserSigRequest{UserID: userID})
	if err != nil {
		return nil, "", err
	}
	// the session token replaces the admin token for this request
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	var resp userSigResponse
	correlation, err := c.do(req, &resp)
	if err != nil {
		return nil, correlation, err
	}
	return &resp.Data, correlation, nil
}

// GetUserSig returns a cached credential for userID if one is still fresh and
// otherwise requests a new one. Authentication and authorization failures
// drop the cached credential.
func (c *Client) GetUserSig(ctx context.Context, sessionToken, userID string) (*core.IssuedCredential, error) {
	if c.cache != nil {
		if cred, ok := c.cache.Get(userID); ok {
			return &cred, nil
		}
	}

	cred, _, err := c.GenerateUserSig(ctx, sessionToken, userID)
	if err != nil {
		if c.cache != nil && (IsStatus(err, http.StatusUnauthorized) || IsStatus(err, http.StatusForbidden)) {
			c.cache.Clear(userID)
		}
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetIssued(userID, *cred)
	}
	return cred, nil
}
