package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/google/uuid"
)

type projectService struct {
	repos    *repository.Repos
	uow      db.UnitOfWork
	locks    *ProjectLocks
	observer UseCaseObserver
}

// NewProjectService builds the project facade. locks must be the instance
// shared with the task service so membership changes and task writes on the
// same project are serialized.
func NewProjectService(repos *repository.Repos, uow db.UnitOfWork, locks *ProjectLocks, observers ...UseCaseObserver) ProjectService {
	return &projectService{
		repos:    repos,
		uow:      uow,
		locks:    locks,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *projectService) CreateProject(ctx context.Context, actorID string, in CreateProjectInput) (project *domain.Project, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "name": in.Name}
	defer func() { finishUseCase(ctx, s.observer, "create-project", startedAt, fields, err) }()

	p := &domain.Project{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		OwnerID:     actorID,
		MemberIDs:   []string{actorID},
		Status:      domain.ProjectActive,
		CreatedAt:   startedAt,
		UpdatedAt:   startedAt,
	}
	if err = p.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		if _, err := r.Users.GetByID(ctx, actorID); err != nil {
			return err
		}
		return r.Projects.Put(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	fields["project_id"] = p.ID
	return p, nil
}

func (s *projectService) GetProject(ctx context.Context, actorID, projectID string) (*domain.Project, error) {
	p, err := s.repos.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := p.Authorize(actorID, domain.ActionRead); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) ListProjects(ctx context.Context, actorID string) ([]*domain.Project, error) {
	if _, err := s.repos.Users.GetByID(ctx, actorID); err != nil {
		return nil, err
	}
	return s.repos.Projects.ListForUser(ctx, actorID)
}

func (s *projectService) UpdateProject(ctx context.Context, actorID, projectID string, patch ProjectPatch) (project *domain.Project, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "project_id": projectID}
	defer func() { finishUseCase(ctx, s.observer, "update-project", startedAt, fields, err) }()

	unlock := s.locks.Lock(projectID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		p, err := r.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionUpdateProject); err != nil {
			return err
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if err := p.Validate(); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if err := r.Projects.Put(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes every task of the project with its edges and
// comments, then the project itself.
func (s *projectService) DeleteProject(ctx context.Context, actorID, projectID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "project_id": projectID}
	defer func() { finishUseCase(ctx, s.observer, "delete-project", startedAt, fields, err) }()

	unlock := s.locks.Lock(projectID)
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		p, err := r.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionDeleteProject); err != nil {
			return err
		}
		tasks, err := r.Tasks.ListByProject(ctx, projectID, repository.TaskFilter{})
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if err := deleteTaskRows(ctx, r, t.ID); err != nil {
				return err
			}
		}
		fields["task_count"] = len(tasks)
		return r.Projects.Delete(ctx, projectID)
	})
}

func (s *projectService) AddMember(ctx context.Context, actorID, projectID, userID string) (project *domain.Project, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "project_id": projectID, "user_id": userID}
	defer func() { finishUseCase(ctx, s.observer, "add-member", startedAt, fields, err) }()

	unlock := s.locks.Lock(projectID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		p, err := r.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionManageMembers); err != nil {
			return err
		}
		if _, err := r.Users.GetByID(ctx, userID); err != nil {
			return err
		}
		if p.AddMember(userID) {
			p.UpdatedAt = time.Now().UTC()
			if err := r.Projects.Put(ctx, p); err != nil {
				return err
			}
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// RemoveMember refuses to remove the owner before checking who is asking,
// so an owner removal always reports CannotRemoveOwner to any member.
func (s *projectService) RemoveMember(ctx context.Context, actorID, projectID, userID string) (result *RemoveMemberResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "project_id": projectID, "user_id": userID}
	defer func() { finishUseCase(ctx, s.observer, "remove-member", startedAt, fields, err) }()

	unlock := s.locks.Lock(projectID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		p, err := r.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionRead); err != nil {
			return err
		}
		if p.IsOwner(userID) {
			return p.RemoveMember(userID)
		}
		if err := p.AuthorizeMemberRemoval(actorID, userID); err != nil {
			return err
		}
		if err := p.RemoveMember(userID); err != nil {
			return err
		}
		unassigned, err := r.Tasks.UnassignUser(ctx, projectID, userID)
		if err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if err := r.Projects.Put(ctx, p); err != nil {
			return err
		}
		result = &RemoveMemberResult{Project: p, UnassignedTasks: unassigned}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["unassigned_tasks"] = result.UnassignedTasks
	return result, nil
}

func (s *projectService) TransferOwnership(ctx context.Context, actorID, projectID, newOwnerID string) (project *domain.Project, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "project_id": projectID, "new_owner_id": newOwnerID}
	defer func() { finishUseCase(ctx, s.observer, "transfer-ownership", startedAt, fields, err) }()

	unlock := s.locks.Lock(projectID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		p, err := r.Projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionManageMembers); err != nil {
			return err
		}
		if err := p.TransferOwnership(newOwnerID); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		if err := r.Projects.Put(ctx, p); err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Authorize(ctx context.Context, userID, projectID string, action domain.Action) error {
	p, err := s.repos.Projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	return p.Authorize(userID, action)
}

// deleteTaskRows removes a task's edges in both directions, its comments,
// and then the task row.
func deleteTaskRows(ctx context.Context, r *repository.Repos, taskID string) error {
	if _, err := r.Dependencies.DeleteForTask(ctx, taskID); err != nil {
		return err
	}
	if _, err := r.Comments.DeleteForTask(ctx, taskID); err != nil {
		return err
	}
	return r.Tasks.Delete(ctx, taskID)
}
