package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/google/uuid"
)

var testEmailCounter atomic.Int64

// User options
type UserOption func(*domain.User)

func WithEmail(email string) UserOption {
	return func(u *domain.User) {
		u.Email = email
	}
}

// NewTestUser returns a user with a unique email derived from name.
func NewTestUser(name string, opts ...UserOption) *domain.User {
	n := testEmailCounter.Add(1)
	u := &domain.User{
		ID:          uuid.New().String(),
		Email:       fmt.Sprintf("user%d@example.com", n),
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Project options
type ProjectOption func(*domain.Project)

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func WithMembers(ids ...string) ProjectOption {
	return func(p *domain.Project) {
		for _, id := range ids {
			p.AddMember(id)
		}
	}
}

func WithDescription(d string) ProjectOption {
	return func(p *domain.Project) {
		p.Description = d
	}
}

// NewTestProject returns an active project owned by ownerID. The owner is
// listed as a member.
func NewTestProject(ownerID, name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   ownerID,
		MemberIDs: []string{ownerID},
		Status:    domain.ProjectActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task options
type TaskOption func(*domain.Task)

func WithStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
		if s == domain.StatusDone && t.CompletedAt == nil {
			now := time.Now().UTC()
			t.CompletedAt = &now
		}
	}
}

func WithPriority(p domain.Priority) TaskOption {
	return func(t *domain.Task) {
		t.Priority = p
	}
}

func WithAssignee(userID string) TaskOption {
	return func(t *domain.Task) {
		t.AssigneeID = &userID
	}
}

func WithTags(tags ...string) TaskOption {
	return func(t *domain.Task) {
		t.Tags = domain.NormalizeTags(tags)
	}
}

func WithDueDate(d time.Time) TaskOption {
	return func(t *domain.Task) {
		t.DueDate = &d
	}
}

func WithEstimatedHours(h float64) TaskOption {
	return func(t *domain.Task) {
		t.EstimatedHours = &h
	}
}

func WithCreatedAt(ts time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CreatedAt = ts
		t.UpdatedAt = ts
	}
}

// NewTestTask returns a TODO task of medium priority.
func NewTestTask(projectID, creatorID, title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		CreatorID: creatorID,
		Title:     title,
		Status:    domain.StatusTodo,
		Priority:  domain.PriorityMedium,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTestComment returns a comment authored now.
func NewTestComment(taskID, authorID, content string) *domain.Comment {
	return &domain.Comment{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}
