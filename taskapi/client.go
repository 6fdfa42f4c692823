// Package taskapi wraps the task-management backend's REST surface in typed
// calls. It is a thin layer over api.Transport: validation, permission
// enforcement and persistence all live server-side.
package taskapi

import (
	"fmt"
	"net/url"

	"github.com/taskgrid/taskgrid-go/api"
	"github.com/taskgrid/taskgrid-go/cache"
	"github.com/taskgrid/taskgrid-go/session"
)

// Client exposes the backend's CRUD surface.
type Client struct {
	tr *api.Transport

	// Per-account caches; register these with the auth service so they are
	// cleared on login and logout.
	users  *cache.Cache[string, *session.User]
	images *cache.Cache[string, []byte]
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithUserCache substitutes the user-directory cache.
func WithUserCache(c *cache.Cache[string, *session.User]) ClientOption {
	return func(tc *Client) { tc.users = c }
}

// WithImageCache substitutes the image byte cache.
func WithImageCache(c *cache.Cache[string, []byte]) ClientOption {
	return func(tc *Client) { tc.images = c }
}

// NewClient creates a task API client on top of an authenticated transport.
func NewClient(tr *api.Transport, options ...ClientOption) *Client {
	c := &Client{
		tr:     tr,
		users:  cache.New[string, *session.User](),
		images: cache.New[string, []byte](),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func listPath(base string, opts ListOptions) string {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", opts.PageSize))
	}
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
