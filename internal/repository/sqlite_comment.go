package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
)

// SQLiteCommentRepo implements CommentRepo using a SQLite database.
type SQLiteCommentRepo struct {
	db db.DBTX
}

// NewSQLiteCommentRepo creates a new SQLiteCommentRepo.
func NewSQLiteCommentRepo(conn db.DBTX) *SQLiteCommentRepo {
	return &SQLiteCommentRepo{db: conn}
}

func (r *SQLiteCommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	query := `INSERT INTO comments (id, task_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.TaskID, c.AuthorID, c.Content, formatTime(c.CreatedAt))
	return classifyWriteErr("inserting comment", err)
}

// ListByTask returns comments oldest first.
func (r *SQLiteCommentRepo) ListByTask(ctx context.Context, taskID string) ([]*domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, author_id, content, created_at
		FROM comments WHERE task_id = ? ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comments: %w", err)
	}
	return comments, nil
}

func (r *SQLiteCommentRepo) DeleteForTask(ctx context.Context, taskID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE task_id = ?`, taskID)
	if err != nil {
		return 0, fmt.Errorf("deleting comments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted comments: %w", err)
	}
	return int(n), nil
}
