package taskapi

import "time"

// Role is a named permission bundle assigned to users.
type Role struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// Project groups tasks.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Task is one unit of work inside a project.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// AuditEntry is one row of the backend's audit log.
type AuditEntry struct {
	ID         string     `json:"id"`
	ActorID    string     `json:"actor_id"`
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// SearchHit is one global search result.
type SearchHit struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Title      string `json:"title"`
}

// Attachment is the metadata of an uploaded image.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	TaskID   string `json:"task_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

// List is the backend's standard list payload.
type List[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// ListOptions are common pagination/filter parameters.
type ListOptions struct {
	Page     int
	PageSize int
}
