package api

import (
	"time"

	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/service"
)

type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserView(u *domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}

type projectView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	MemberIDs   []string  `json:"member_ids"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectView(p *domain.Project) projectView {
	members := p.MemberIDs
	if members == nil {
		members = []string{}
	}
	return projectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		MemberIDs:   members,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type taskView struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	CreatorID      string     `json:"creator_id"`
	AssigneeID     *string    `json:"assignee_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Tags           []string   `json:"tags"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toTaskView(t *domain.Task) taskView {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskView{
		ID:             t.ID,
		ProjectID:      t.ProjectID,
		CreatorID:      t.CreatorID,
		AssigneeID:     t.AssigneeID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		DueDate:        t.DueDate,
		Tags:           tags,
		EstimatedHours: t.EstimatedHours,
		ActualHours:    t.ActualHours,
		CompletedAt:    t.CompletedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toTaskViews(tasks []*domain.Task) []taskView {
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, toTaskView(t))
	}
	return views
}

type commentView struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toCommentView(c *domain.Comment) commentView {
	return commentView{ID: c.ID, TaskID: c.TaskID, AuthorID: c.AuthorID, Content: c.Content, CreatedAt: c.CreatedAt}
}

type dependenciesView struct {
	TaskID     string     `json:"task_id"`
	DependsOn  []taskView `json:"depends_on"`
	Dependents []taskView `json:"dependents"`
	Blockers   []taskView `json:"blockers"`
}

func toDependenciesView(d *service.TaskDependencies) dependenciesView {
	return dependenciesView{
		TaskID:     d.TaskID,
		DependsOn:  toTaskViews(d.DependsOn),
		Dependents: toTaskViews(d.Dependents),
		Blockers:   toTaskViews(d.Blockers),
	}
}

type registerUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

type userRefRequest struct {
	UserID string `json:"user_id"`
}

type createTaskRequest struct {
	ProjectID      string     `json:"project_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	AssigneeID     *string    `json:"assignee_id"`
	DueDate        *time.Time `json:"due_date"`
	Tags           []string   `json:"tags"`
	EstimatedHours *float64   `json:"estimated_hours"`
	ActualHours    *float64   `json:"actual_hours"`
}

type updateTaskRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Status         *string    `json:"status"`
	Priority       *string    `json:"priority"`
	Tags           *[]string  `json:"tags"`
	DueDate        *time.Time `json:"due_date"`
	ClearDueDate   bool       `json:"clear_due_date"`
	EstimatedHours *float64   `json:"estimated_hours"`
	ActualHours    *float64   `json:"actual_hours"`
	AssigneeID     *string    `json:"assignee_id"`
	ClearAssignee  bool       `json:"clear_assignee"`
}

// toPatch converts the request, parsing enum strings case-insensitively.
func (r updateTaskRequest) toPatch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:          r.Title,
		Description:    r.Description,
		Tags:           r.Tags,
		DueDate:        r.DueDate,
		ClearDueDate:   r.ClearDueDate,
		EstimatedHours: r.EstimatedHours,
		ActualHours:    r.ActualHours,
		AssigneeID:     r.AssigneeID,
		ClearAssignee:  r.ClearAssignee,
	}
	if r.Status != nil {
		st, ok := domain.ParseTaskStatus(*r.Status)
		if !ok {
			return patch, badRequest("invalid status %q", *r.Status)
		}
		patch.Status = &st
	}
	if r.Priority != nil {
		p, ok := domain.ParsePriority(*r.Priority)
		if !ok {
			return patch, badRequest("invalid priority %q", *r.Priority)
		}
		patch.Priority = &p
	}
	return patch, nil
}

type addDependencyRequest struct {
	DependsOnID string `json:"depends_on_id"`
}

type addCommentRequest struct {
	Content string `json:"content"`
}
