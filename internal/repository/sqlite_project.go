package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
)

const projectColumns = `id, name, description, owner_id, status, created_at, updated_at`

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

// Put upserts the project row and reconciles its membership rows. The owner
// is always written as a member. Callers wanting atomicity run Put inside a
// UnitOfWork.
func (r *SQLiteProjectRepo) Put(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (id, name, description, owner_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			owner_id = excluded.owner_id,
			status = excluded.status,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.OwnerID,
		string(p.Status),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if err != nil {
		return classifyWriteErr("upserting project", err)
	}
	return r.syncMembers(ctx, p)
}

func (r *SQLiteProjectRepo) syncMembers(ctx context.Context, p *domain.Project) error {
	current, err := r.listMemberIDs(ctx, p.ID)
	if err != nil {
		return err
	}
	want := make(map[string]bool, len(p.MemberIDs)+1)
	want[p.OwnerID] = true
	for _, id := range p.MemberIDs {
		want[id] = true
	}
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}

	joinedAt := formatTime(p.UpdatedAt)
	for id := range want {
		if have[id] {
			continue
		}
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO project_members (project_id, user_id, joined_at) VALUES (?, ?, ?)`,
			p.ID, id, joinedAt)
		if err != nil {
			return classifyWriteErr("adding project member", err)
		}
	}
	for id := range have {
		if want[id] {
			continue
		}
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, p.ID, id)
		if err != nil {
			return fmt.Errorf("removing project member: %w", err)
		}
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("project", id)
	}
	if err != nil {
		return nil, err
	}
	if p.MemberIDs, err = r.listMemberIDs(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteProjectRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	query := `SELECT p.id, p.name, p.description, p.owner_id, p.status, p.created_at, p.updated_at
		FROM projects p
		JOIN project_members m ON m.project_id = p.id
		WHERE m.user_id = ?
		ORDER BY p.created_at, p.id`
	return r.listProjects(ctx, query, userID)
}

func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return classifyWriteErr("deleting project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("project", id)
	}
	return nil
}

func (r *SQLiteProjectRepo) listProjects(ctx context.Context, query string, args ...any) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	rows.Close()

	// Members are loaded after the cursor is closed; a single-connection
	// pool cannot run a second query while the first is still open.
	for _, p := range projects {
		if p.MemberIDs, err = r.listMemberIDs(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) listMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM project_members WHERE project_id = ? ORDER BY user_id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project members: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning project member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project members: %w", err)
	}
	return ids, nil
}

// scanProject scans a single project row without its members.
func scanProject(s rowScanner) (*domain.Project, error) {
	var p domain.Project
	var statusStr, createdAtStr, updatedAtStr string

	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &statusStr, &createdAtStr, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	p.Status = domain.ProjectStatus(statusStr)

	if p.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}
