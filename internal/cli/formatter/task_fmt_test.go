package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/stretchr/testify/assert"
)

func sampleTask(id, title string, status domain.TaskStatus) *domain.Task {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:        id,
		ProjectID: "p1",
		CreatorID: ownerID,
		Title:     title,
		Status:    status,
		Priority:  domain.PriorityMedium,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFormatTaskList(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	assignee := memberID

	a := sampleTask("aaaaaaaa-0001", "Write API", domain.StatusInProgress)
	a.AssigneeID = &assignee
	a.DueDate = &due
	a.Tags = []string{"backend"}
	a.Priority = domain.PriorityUrgent
	b := sampleTask("bbbbbbbb-0002", "Ship it", domain.StatusTodo)

	out := FormatTaskList([]*domain.Task{a, b}, Names{memberID: "Marco"}, now)

	assert.Contains(t, out, "aaaaaaaa")
	assert.Contains(t, out, "Write API")
	assert.Contains(t, out, "In Progress")
	assert.Contains(t, out, "URGENT")
	assert.Contains(t, out, "Marco")
	assert.Contains(t, out, "Tomorrow")
	assert.Contains(t, out, "#backend")
	assert.Contains(t, out, "Ship it")

	assert.Contains(t, FormatTaskList(nil, nil, now), "No tasks match")
}

func TestFormatTaskShow(t *testing.T) {
	now := time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)
	est, act := 8.0, 2.5
	task := sampleTask("cccccccc-0003", "Build", domain.StatusInProgress)
	task.Description = "Implement the backend"
	task.EstimatedHours = &est
	task.ActualHours = &act

	design := sampleTask("aaaaaaaa-0001", "Design", domain.StatusDone)
	review := sampleTask("dddddddd-0004", "Review", domain.StatusInReview)
	ship := sampleTask("bbbbbbbb-0002", "Ship", domain.StatusTodo)
	deps := &service.TaskDependencies{
		TaskID:     task.ID,
		DependsOn:  []*domain.Task{design, review},
		Dependents: []*domain.Task{ship},
		Blockers:   []*domain.Task{review},
	}

	out := FormatTaskShow(task, Names{ownerID: "Olivia"}, deps, now)

	assert.Contains(t, out, "BUILD")
	assert.Contains(t, out, "Olivia")
	assert.Contains(t, out, "unassigned")
	assert.Contains(t, out, "2.5h / 8h")
	assert.Contains(t, out, "IN_REVIEW, CANCELLED")
	assert.Contains(t, out, "Implement the backend")
	assert.Contains(t, out, "Depends on")
	assert.Contains(t, out, "[ blocking ]")
	assert.Contains(t, out, "Required by")
	assert.Contains(t, out, "Blocked by 1 open task(s)")
}

func TestFormatDependencies_Ready(t *testing.T) {
	task := sampleTask("cccccccc-0003", "Build", domain.StatusTodo)
	out := FormatDependencies(task, &service.TaskDependencies{TaskID: task.ID})

	assert.Contains(t, out, "none")
	assert.Contains(t, out, "Ready: no open blockers")
}

func TestFormatComments(t *testing.T) {
	now := time.Now().UTC()
	comments := []*domain.Comment{
		{ID: "c1", TaskID: "t", AuthorID: ownerID, Content: "first\nsecond line", CreatedAt: now},
		{ID: "c2", TaskID: "t", AuthorID: memberID, Content: "reply", CreatedAt: now},
	}

	out := FormatComments(comments, Names{ownerID: "Olivia", memberID: "Marco"})
	assert.Contains(t, out, "Olivia · Just now")
	assert.Contains(t, out, "  second line")
	assert.Contains(t, out, "Marco")
	assert.Contains(t, FormatComments(nil, nil), "No comments")
}

func TestFormatUserList(t *testing.T) {
	out := FormatUserList([]*domain.User{{ID: ownerID, Email: "olivia@example.com", DisplayName: "Olivia", CreatedAt: time.Now()}})
	assert.Contains(t, out, "olivia@example.com")
	assert.Contains(t, out, "Today")
	assert.Contains(t, FormatUserList(nil), "No users")
}
