package taskapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/taskgrid/taskgrid-go/api"
	"github.com/taskgrid/taskgrid-go/session"
)

type currentUserPayload struct {
	User        *session.User   `json:"user"`
	Permissions map[string]bool `json:"permissions"`
}

// CurrentUser fetches the authenticated user and their permission map. The
// session controller calls this during startup reconciliation.
func (c *Client) CurrentUser(ctx context.Context) (*session.User, map[string]bool, error) {
	payload, err := api.Do[currentUserPayload](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   "/user",
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "[Client.CurrentUser]")
	}
	return payload.User, payload.Permissions, nil
}

// Users lists users.
func (c *Client) Users(ctx context.Context, opts ListOptions) (List[session.User], error) {
	return api.Do[List[session.User]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   listPath("/user/all", opts),
	})
}

// User fetches one user by id, served from the user-directory cache when
// warm.
func (c *Client) User(ctx context.Context, id string) (*session.User, error) {
	return c.users.GetOrLoad(id, func() (*session.User, error) {
		return api.Do[*session.User](ctx, c.tr, api.Request{
			Method: http.MethodGet,
			Path:   "/user/" + url.PathEscape(id),
		})
	})
}

// UserInput carries the writable user fields.
type UserInput struct {
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	RoleIDs   []string `json:"role_ids,omitempty"`
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (*session.User, error) {
	return api.Do[*session.User](ctx, c.tr, api.Request{
		Method: http.MethodPost,
		Path:   "/user",
		Body:   in,
	})
}

// UpdateUser updates a user and drops the stale directory entry.
func (c *Client) UpdateUser(ctx context.Context, id string, in UserInput) (*session.User, error) {
	user, err := api.Do[*session.User](ctx, c.tr, api.Request{
		Method: http.MethodPut,
		Path:   "/user/" + url.PathEscape(id),
		Body:   in,
	})
	if err != nil {
		return nil, err
	}
	c.users.Invalidate(id)
	return user, nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	err := c.tr.Do(ctx, api.Request{
		Method: http.MethodDelete,
		Path:   "/user/" + url.PathEscape(id),
	}, nil)
	if err != nil {
		return err
	}
	c.users.Invalidate(id)
	return nil
}

// Roles lists all roles.
func (c *Client) Roles(ctx context.Context, opts ListOptions) (List[Role], error) {
	return api.Do[List[Role]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   listPath("/role/all", opts),
	})
}

// RolesByUser fetches the roles assigned to a user. Reconciliation falls
// back to this when the user record carries no embedded role names.
func (c *Client) RolesByUser(ctx context.Context, userID string) ([]Role, error) {
	list, err := api.Do[List[Role]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   "/role/by-user/" + url.PathEscape(userID),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.RolesByUser]")
	}
	return list.Items, nil
}
