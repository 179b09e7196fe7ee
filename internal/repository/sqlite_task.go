package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
)

// taskColumns is the canonical SELECT column list for tasks.
const taskColumns = `id, project_id, creator_id, assignee_id, title, description, status, priority,
		due_date, tags, estimated_hours, actual_hours, completed_at, created_at, updated_at`

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo.
func NewSQLiteTaskRepo(conn db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: conn}
}

// Put inserts or replaces a task by id. The replace is an UPDATE in place so
// rows referencing the task (dependencies, comments) are left alone.
func (r *SQLiteTaskRepo) Put(ctx context.Context, t *domain.Task) error {
	tags, err := marshalTags(t.Tags)
	if err != nil {
		return err
	}
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			creator_id = excluded.creator_id,
			assignee_id = excluded.assignee_id,
			title = excluded.title,
			description = excluded.description,
			status = excluded.status,
			priority = excluded.priority,
			due_date = excluded.due_date,
			tags = excluded.tags,
			estimated_hours = excluded.estimated_hours,
			actual_hours = excluded.actual_hours,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`
	_, err = r.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		t.CreatorID,
		nullableString(t.AssigneeID),
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		nullableTimeToString(t.DueDate),
		tags,
		nullableFloat(t.EstimatedHours),
		nullableFloat(t.ActualHours),
		nullableTimeToString(t.CompletedAt),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	return classifyWriteErr("upserting task", err)
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("task", id)
	}
	return t, err
}

func (r *SQLiteTaskRepo) ListByProject(ctx context.Context, projectID string, f TaskFilter) ([]*domain.Task, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`)
	args := []any{projectID}
	if f.Status != "" {
		b.WriteString(` AND status = ?`)
		args = append(args, string(f.Status))
	}
	if f.AssigneeID != "" {
		b.WriteString(` AND assignee_id = ?`)
		args = append(args, f.AssigneeID)
	}
	if f.Tag != "" {
		b.WriteString(` AND EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value = ?)`)
		args = append(args, f.Tag)
	}
	b.WriteString(` ORDER BY created_at, id`)
	return r.listTasks(ctx, b.String(), args...)
}

func (r *SQLiteTaskRepo) UnassignUser(ctx context.Context, projectID, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assignee_id = NULL, updated_at = ? WHERE project_id = ? AND assignee_id = ?`,
		formatTime(nowUTC()), projectID, userID)
	if err != nil {
		return 0, fmt.Errorf("unassigning user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting unassigned tasks: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return classifyWriteErr("deleting task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("task", id)
	}
	return nil
}

func (r *SQLiteTaskRepo) listTasks(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(s rowScanner) (*domain.Task, error) {
	var t domain.Task
	var assignee, dueDate, completedAt sql.NullString
	var estimated, actual sql.NullFloat64
	var statusStr, priorityStr, tagsRaw, createdAtStr, updatedAtStr string

	err := s.Scan(
		&t.ID, &t.ProjectID, &t.CreatorID, &assignee,
		&t.Title, &t.Description, &statusStr, &priorityStr,
		&dueDate, &tagsRaw, &estimated, &actual,
		&completedAt, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Status = domain.TaskStatus(statusStr)
	t.Priority = domain.Priority(priorityStr)
	t.AssigneeID = stringFromNull(assignee)
	t.DueDate = parseNullableTime(dueDate)
	t.CompletedAt = parseNullableTime(completedAt)
	t.EstimatedHours = floatFromNull(estimated)
	t.ActualHours = floatFromNull(actual)

	if t.Tags, err = unmarshalTags(tagsRaw); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &t, nil
}
