package domain

import (
	"strings"
	"time"
)

// Comment is append-only: there is no update path.
type Comment struct {
	ID        string
	TaskID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Content) == "" {
		return Violation("comment content is required")
	}
	if c.TaskID == "" || c.AuthorID == "" {
		return Violation("comment task and author are required")
	}
	return nil
}

// Dependency is a directed "TaskID depends on DependsOnID" edge.
type Dependency struct {
	TaskID      string
	DependsOnID string
	CreatedAt   time.Time
}
