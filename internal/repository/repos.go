package repository

import "github.com/alexanderramin/cybertask/internal/db"

// Repos bundles every repository over a single connection or transaction.
type Repos struct {
	Users        UserRepo
	Projects     ProjectRepo
	Tasks        TaskRepo
	Dependencies DependencyRepo
	Comments     CommentRepo
}

// NewSQLiteRepos builds the SQLite repositories over conn. Inside a
// UnitOfWork, pass the tx so all of them share it.
func NewSQLiteRepos(conn db.DBTX) *Repos {
	return &Repos{
		Users:        NewSQLiteUserRepo(conn),
		Projects:     NewSQLiteProjectRepo(conn),
		Tasks:        NewSQLiteTaskRepo(conn),
		Dependencies: NewSQLiteDependencyRepo(conn),
		Comments:     NewSQLiteCommentRepo(conn),
	}
}
