package taskapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/taskgrid/taskgrid-go/api"
)

// Projects lists projects.
func (c *Client) Projects(ctx context.Context, opts ListOptions) (List[Project], error) {
	return api.Do[List[Project]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   listPath("/project/all", opts),
	})
}

// ProjectInput carries the writable project fields.
type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
	return api.Do[*Project](ctx, c.tr, api.Request{
		Method: http.MethodPost,
		Path:   "/project",
		Body:   in,
	})
}

// UpdateProject updates a project.
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (*Project, error) {
	return api.Do[*Project](ctx, c.tr, api.Request{
		Method: http.MethodPut,
		Path:   "/project/" + url.PathEscape(id),
		Body:   in,
	})
}

// DeleteProject removes a project.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.tr.Do(ctx, api.Request{
		Method: http.MethodDelete,
		Path:   "/project/" + url.PathEscape(id),
	}, nil)
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	ProjectID  string
	Status     TaskStatus
	AssigneeID string
	ListOptions
}

// Tasks lists tasks matching the filter.
func (c *Client) Tasks(ctx context.Context, filter TaskFilter) (List[Task], error) {
	q := url.Values{}
	if filter.ProjectID != "" {
		q.Set("project_id", filter.ProjectID)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.AssigneeID != "" {
		q.Set("assignee_id", filter.AssigneeID)
	}
	path := listPath("/task/all", filter.ListOptions)
	if len(q) > 0 {
		sep := "?"
		if len(path) > len("/task/all") {
			sep = "&"
		}
		path += sep + q.Encode()
	}
	return api.Do[List[Task]](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   path,
	})
}

// Task fetches one task.
func (c *Client) Task(ctx context.Context, id string) (*Task, error) {
	return api.Do[*Task](ctx, c.tr, api.Request{
		Method: http.MethodGet,
		Path:   "/task/" + url.PathEscape(id),
	})
}

// TaskInput carries the writable task fields. Pointer fields are omitted
// when nil so partial updates only touch what the caller set.
type TaskInput struct {
	ProjectID   string      `json:"project_id,omitempty"`
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
	AssigneeID  *string     `json:"assignee_id,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (*Task, error) {
	return api.Do[*Task](ctx, c.tr, api.Request{
		Method: http.MethodPost,
		Path:   "/task",
		Body:   in,
	})
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id string, in TaskInput) (*Task, error) {
	return api.Do[*Task](ctx, c.tr, api.Request{
		Method: http.MethodPatch,
		Path:   "/task/" + url.PathEscape(id),
		Body:   in,
	})
}

// UpdateTaskStatus moves a task to a new workflow state.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status TaskStatus) (*Task, error) {
	return api.Do[*Task](ctx, c.tr, api.Request{
		Method: http.MethodPost,
		Path:   "/task/" + url.PathEscape(id) + "/status",
		Body:   map[string]TaskStatus{"status": status},
	})
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.tr.Do(ctx, api.Request{
		Method: http.MethodDelete,
		Path:   "/task/" + url.PathEscape(id),
	}, nil)
}
