package db

import (
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Every statement is idempotent, so the
// full list is re-applied on each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := backfillOwnerMemberships(db); err != nil {
		return fmt.Errorf("backfilling owner memberships: %w", err)
	}
	return nil
}

// backfillOwnerMemberships guarantees every project owner has a membership
// row, whatever wrote the projects table.
func backfillOwnerMemberships(db *sql.DB) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO project_members (project_id, user_id, joined_at)
		SELECT id, owner_id, created_at FROM projects`)
	return err
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		email        TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id    TEXT NOT NULL REFERENCES users(id),
		status      TEXT NOT NULL DEFAULT 'ACTIVE'
		            CHECK(status IN ('ACTIVE','ARCHIVED','COMPLETED')),
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id)`,

	`CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id),
		joined_at  TEXT NOT NULL,
		PRIMARY KEY (project_id, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_project_members_user ON project_members(user_id)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		creator_id      TEXT NOT NULL REFERENCES users(id),
		assignee_id     TEXT REFERENCES users(id),
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'TODO'
		                CHECK(status IN ('TODO','IN_PROGRESS','IN_REVIEW','DONE','CANCELLED')),
		priority        TEXT NOT NULL DEFAULT 'MEDIUM'
		                CHECK(priority IN ('LOW','MEDIUM','HIGH','URGENT')),
		due_date        TEXT,
		tags            TEXT NOT NULL DEFAULT '[]',
		estimated_hours REAL CHECK(estimated_hours IS NULL OR estimated_hours >= 0),
		actual_hours    REAL CHECK(actual_hours IS NULL OR actual_hours >= 0),
		completed_at    TEXT,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,

	`CREATE TABLE IF NOT EXISTS task_dependencies (
		task_id       TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		depends_on_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		created_at    TEXT NOT NULL,
		PRIMARY KEY (task_id, depends_on_id),
		CHECK(task_id != depends_on_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_task_dependencies_depends_on ON task_dependencies(depends_on_id)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id         TEXT PRIMARY KEY,
		task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		author_id  TEXT NOT NULL REFERENCES users(id),
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_id)`,
}
