package bingads

import (
	"context"

	"bingads-extractor/workers/extractor/internal/auth"
)

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, ac *auth.Context) (*User, error) {
	var resp getUserResponse
	if err := c.call(ctx, ac, "get_user", c.config.Endpoints.Customer, "/User/Query", getUserRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// GetAccountsInfo lists the accounts reachable by the authenticated user.
func (c *Client) GetAccountsInfo(ctx context.Context, ac *auth.Context) ([]AccountInfo, error) {
	var resp getAccountsInfoResponse
	if err := c.call(ctx, ac, "get_accounts_info", c.config.Endpoints.Customer, "/AccountsInfo/Query", getAccountsInfoRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.AccountsInfo, nil
}
