package taskapi

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/taskgrid/taskgrid-go/api"
)

// Search runs a global search across users, projects and tasks.
func (c *Client) Search(ctx context.Context, query string) ([]SearchHit, error) {
	list, err := api.Do[List[SearchHit]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   "/search?q=" + url.QueryEscape(query),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Search]")
	}
	return list.Items, nil
}

// AuditLog lists audit entries, newest first.
func (c *Client) AuditLog(ctx context.Context, opts ListOptions) (List[AuditEntry], error) {
	return api.Do[List[AuditEntry]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   listPath("/audit-log", opts),
	})
}

type uploadRequest struct {
	FileName string `json:"file_name"`
	TaskID   string `json:"task_id,omitempty"`
	Content  string `json:"content"` // base64
}

// UploadImage attaches an image to a task.
func (c *Client) UploadImage(ctx context.Context, taskID, fileName string, data []byte) (*Attachment, error) {
	return api.Do[*Attachment](ctx, c.tr, api.Request{
		Method: http.MethodPost,
		Path:   "/image",
		Body: uploadRequest{
			FileName: fileName,
			TaskID:   taskID,
			Content:  base64.StdEncoding.EncodeToString(data),
		},
	})
}

type imagePayload struct {
	Content string `json:"content"` // base64
}

// Image fetches an attachment's bytes, served from the image cache when
// warm. The cache is cleared on login and logout.
func (c *Client) Image(ctx context.Context, id string) ([]byte, error) {
	return c.images.GetOrLoad(id, func() ([]byte, error) {
		payload, err := api.Do[imagePayload](ctx, c.tr, api.Request{
			Method: http.MethodGet,
			Path:   "/image/" + url.PathEscape(id),
		})
		if err != nil {
			return nil, errors.Wrap(err, "[Client.Image]")
		}
		raw, err := base64.StdEncoding.DecodeString(payload.Content)
		if err != nil {
			return nil, errors.Wrap(err, "[Client.Image] decode content")
		}
		return raw, nil
	})
}

// InvalidateImage drops one attachment from the image cache, for callers
// that replace an image in place.
func (c *Client) InvalidateImage(id string) {
	c.images.Invalidate(id)
}
