package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
)

// SQLiteDependencyRepo implements DependencyRepo using a SQLite database.
// It stores edges only; acyclicity is enforced by the caller.
type SQLiteDependencyRepo struct {
	db db.DBTX
}

// NewSQLiteDependencyRepo creates a new SQLiteDependencyRepo.
func NewSQLiteDependencyRepo(conn db.DBTX) *SQLiteDependencyRepo {
	return &SQLiteDependencyRepo{db: conn}
}

func (r *SQLiteDependencyRepo) Create(ctx context.Context, d *domain.Dependency) error {
	query := `INSERT INTO task_dependencies (task_id, depends_on_id, created_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, d.TaskID, d.DependsOnID, formatTime(d.CreatedAt))
	if isUniqueViolation(err) {
		return domain.NewError(domain.ErrConstraintViolation, "dependency already exists",
			"task_id", d.TaskID, "depends_on_id", d.DependsOnID)
	}
	return classifyWriteErr("inserting dependency", err)
}

func (r *SQLiteDependencyRepo) Delete(ctx context.Context, taskID, dependsOnID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_id = ?`, taskID, dependsOnID)
	if err != nil {
		return fmt.Errorf("deleting dependency: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewError(domain.ErrNotFound, "dependency not found",
			"task_id", taskID, "depends_on_id", dependsOnID)
	}
	return nil
}

func (r *SQLiteDependencyRepo) ListByProject(ctx context.Context, projectID string) ([]domain.Dependency, error) {
	query := `SELECT d.task_id, d.depends_on_id, d.created_at
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.task_id
		WHERE t.project_id = ?
		ORDER BY d.task_id, d.depends_on_id`
	return r.listDependencies(ctx, "listing project dependencies", query, projectID)
}

func (r *SQLiteDependencyRepo) DeleteForTask(ctx context.Context, taskID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM task_dependencies WHERE task_id = ? OR depends_on_id = ?`, taskID, taskID)
	if err != nil {
		return 0, fmt.Errorf("deleting task dependencies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted dependencies: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteDependencyRepo) listDependencies(ctx context.Context, op, query string, args ...any) ([]domain.Dependency, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var deps []domain.Dependency
	for rows.Next() {
		var d domain.Dependency
		var createdAt string
		if err := rows.Scan(&d.TaskID, &d.DependsOnID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning dependency: %w", err)
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependencies: %w", err)
	}
	return deps, nil
}
