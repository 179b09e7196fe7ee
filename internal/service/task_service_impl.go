package service

import (
	"context"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/depgraph"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/google/uuid"
)

type taskService struct {
	repos    *repository.Repos
	uow      db.UnitOfWork
	locks    *ProjectLocks
	observer UseCaseObserver
}

func NewTaskService(repos *repository.Repos, uow db.UnitOfWork, locks *ProjectLocks, observers ...UseCaseObserver) TaskService {
	return &taskService{
		repos:    repos,
		uow:      uow,
		locks:    locks,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *taskService) CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (task *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "project_id": in.ProjectID}
	defer func() { finishUseCase(ctx, s.observer, "create-task", startedAt, fields, err) }()

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	t := &domain.Task{
		ID:             uuid.New().String(),
		ProjectID:      in.ProjectID,
		CreatorID:      actorID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         domain.StatusTodo,
		Priority:       priority,
		DueDate:        in.DueDate,
		Tags:           domain.NormalizeTags(in.Tags),
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		CreatedAt:      startedAt,
		UpdatedAt:      startedAt,
	}
	if in.AssigneeID != nil && *in.AssigneeID != "" {
		assignee := *in.AssigneeID
		t.AssigneeID = &assignee
	}
	if err = t.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(in.ProjectID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		p, err := r.Projects.GetByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionCreateTask); err != nil {
			return err
		}
		if t.AssigneeID != nil {
			if err := requireMember(p, *t.AssigneeID); err != nil {
				return err
			}
		}
		return r.Tasks.Put(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	fields["task_id"] = t.ID
	return t, nil
}

func (s *taskService) GetTask(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	t, _, err := loadTaskForActor(ctx, s.repos, actorID, taskID, domain.ActionRead)
	return t, err
}

func (s *taskService) ListTasks(ctx context.Context, actorID, projectID string, filter repository.TaskFilter) ([]*domain.Task, error) {
	if err := s.authorizeProject(ctx, actorID, projectID, domain.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Tasks.ListByProject(ctx, projectID, filter)
}

func (s *taskService) ListTasksInOrder(ctx context.Context, actorID, projectID string) ([]*domain.Task, error) {
	if err := s.authorizeProject(ctx, actorID, projectID, domain.ActionRead); err != nil {
		return nil, err
	}
	tasks, g, err := loadGraph(ctx, s.repos, projectID)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	byID := indexTasks(tasks)
	ordered := make([]*domain.Task, 0, len(order))
	for _, id := range order {
		ordered = append(ordered, byID[id])
	}
	return ordered, nil
}

// UpdateTask applies patch to a copy of the task: assignment, then field
// edits, then status. Nothing is written unless every step passes.
func (s *taskService) UpdateTask(ctx context.Context, actorID, taskID string, patch domain.TaskPatch) (task *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID}
	if patch.Status != nil {
		fields["status"] = string(*patch.Status)
	}
	defer func() { finishUseCase(ctx, s.observer, "update-task", startedAt, fields, err) }()

	if patch.AssigneeID != nil && patch.ClearAssignee {
		return nil, domain.Violation("cannot set and clear the assignee in one update")
	}

	return s.mutateTask(ctx, actorID, taskID, domain.ActionUpdateTask, func(p *domain.Project, t *domain.Task, now time.Time) error {
		// A terminal task refuses the whole patch inside ApplyPatch.
		if !t.IsTerminal() {
			switch {
			case patch.AssigneeID != nil:
				if err := requireMember(p, *patch.AssigneeID); err != nil {
					return err
				}
				if err := t.Assign(*patch.AssigneeID, now); err != nil {
					return err
				}
			case patch.ClearAssignee:
				if err := t.Unassign(now); err != nil {
					return err
				}
			}
		}
		return t.ApplyPatch(patch, now)
	})
}

// DeleteTask removes the task's edges in both directions and its comments,
// then the task.
func (s *taskService) DeleteTask(ctx context.Context, actorID, taskID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID}
	defer func() { finishUseCase(ctx, s.observer, "delete-task", startedAt, fields, err) }()

	projectID, err := s.projectOf(ctx, taskID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		t, p, err := loadTaskWithProject(ctx, r, taskID)
		if err != nil {
			return err
		}
		if err := p.AuthorizeTaskDelete(actorID, t); err != nil {
			return err
		}
		return deleteTaskRows(ctx, r, taskID)
	})
}

func (s *taskService) Assign(ctx context.Context, actorID, taskID, userID string) (task *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID, "assignee_id": userID}
	defer func() { finishUseCase(ctx, s.observer, "assign-task", startedAt, fields, err) }()

	return s.mutateTask(ctx, actorID, taskID, domain.ActionUpdateTask, func(p *domain.Project, t *domain.Task, now time.Time) error {
		if err := requireMember(p, userID); err != nil {
			return err
		}
		return t.Assign(userID, now)
	})
}

func (s *taskService) Unassign(ctx context.Context, actorID, taskID string) (task *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID}
	defer func() { finishUseCase(ctx, s.observer, "unassign-task", startedAt, fields, err) }()

	return s.mutateTask(ctx, actorID, taskID, domain.ActionUpdateTask, func(_ *domain.Project, t *domain.Task, now time.Time) error {
		return t.Unassign(now)
	})
}

// AddDependency records that taskID depends on dependsOnID. Validator
// errors (CycleDetected, CrossProjectDependency) are returned as is.
func (s *taskService) AddDependency(ctx context.Context, actorID, taskID, dependsOnID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID, "depends_on_id": dependsOnID}
	defer func() { finishUseCase(ctx, s.observer, "add-dependency", startedAt, fields, err) }()

	projectID, err := s.projectOf(ctx, taskID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		_, p, err := loadTaskWithProject(ctx, r, taskID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionUpdateTask); err != nil {
			return err
		}
		target, err := r.Tasks.GetByID(ctx, dependsOnID)
		if err != nil {
			return err
		}
		_, g, err := loadGraph(ctx, r, p.ID)
		if err != nil {
			return err
		}
		if target.ProjectID != p.ID {
			g.AddNode(depgraph.NodeOf(target))
		}
		if g.HasEdge(taskID, dependsOnID) {
			return domain.NewError(domain.ErrConstraintViolation, "dependency already exists",
				"task_id", taskID, "depends_on_id", dependsOnID)
		}
		if err := g.AddEdge(taskID, dependsOnID); err != nil {
			return err
		}
		return r.Dependencies.Create(ctx, &domain.Dependency{
			TaskID:      taskID,
			DependsOnID: dependsOnID,
			CreatedAt:   time.Now().UTC(),
		})
	})
}

func (s *taskService) RemoveDependency(ctx context.Context, actorID, taskID, dependsOnID string) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID, "depends_on_id": dependsOnID}
	defer func() { finishUseCase(ctx, s.observer, "remove-dependency", startedAt, fields, err) }()

	projectID, err := s.projectOf(ctx, taskID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		_, p, err := loadTaskWithProject(ctx, r, taskID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionUpdateTask); err != nil {
			return err
		}
		return r.Dependencies.Delete(ctx, taskID, dependsOnID)
	})
}

func (s *taskService) ListDependencies(ctx context.Context, actorID, taskID string) (*TaskDependencies, error) {
	t, _, err := loadTaskForActor(ctx, s.repos, actorID, taskID, domain.ActionRead)
	if err != nil {
		return nil, err
	}
	tasks, g, err := loadGraph(ctx, s.repos, t.ProjectID)
	if err != nil {
		return nil, err
	}
	byID := indexTasks(tasks)
	return &TaskDependencies{
		TaskID:     taskID,
		DependsOn:  pickTasks(byID, g.DependsOn(taskID)),
		Dependents: pickTasks(byID, g.Dependents(taskID)),
		Blockers:   pickTasks(byID, g.Blockers(taskID)),
	}, nil
}

func (s *taskService) AddComment(ctx context.Context, actorID, taskID, content string) (comment *domain.Comment, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"actor_id": actorID, "task_id": taskID}
	defer func() { finishUseCase(ctx, s.observer, "add-comment", startedAt, fields, err) }()

	c := &domain.Comment{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		AuthorID:  actorID,
		Content:   strings.TrimSpace(content),
		CreatedAt: startedAt,
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}

	projectID, err := s.projectOf(ctx, taskID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		_, p, err := loadTaskWithProject(ctx, r, taskID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, domain.ActionComment); err != nil {
			return err
		}
		return r.Comments.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *taskService) ListComments(ctx context.Context, actorID, taskID string) ([]*domain.Comment, error) {
	if _, _, err := loadTaskForActor(ctx, s.repos, actorID, taskID, domain.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Comments.ListByTask(ctx, taskID)
}

// mutateTask runs fn on a copy of the task under the project lock and
// persists the copy when fn succeeds.
func (s *taskService) mutateTask(ctx context.Context, actorID, taskID string, action domain.Action,
	fn func(p *domain.Project, t *domain.Task, now time.Time) error) (*domain.Task, error) {
	projectID, err := s.projectOf(ctx, taskID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(projectID)
	defer unlock()

	var updated *domain.Task
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		t, p, err := loadTaskWithProject(ctx, r, taskID)
		if err != nil {
			return err
		}
		if err := p.Authorize(actorID, action); err != nil {
			return err
		}
		work := t.Clone()
		if err := fn(p, work, time.Now().UTC()); err != nil {
			return err
		}
		if err := work.Validate(); err != nil {
			return err
		}
		if err := r.Tasks.Put(ctx, work); err != nil {
			return err
		}
		updated = work
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// projectOf resolves the lock key for a task. A task never changes project,
// so reading it outside the transaction is safe.
func (s *taskService) projectOf(ctx context.Context, taskID string) (string, error) {
	t, err := s.repos.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return "", err
	}
	return t.ProjectID, nil
}

func (s *taskService) authorizeProject(ctx context.Context, actorID, projectID string, action domain.Action) error {
	p, err := s.repos.Projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	return p.Authorize(actorID, action)
}

func loadTaskWithProject(ctx context.Context, r *repository.Repos, taskID string) (*domain.Task, *domain.Project, error) {
	t, err := r.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	p, err := r.Projects.GetByID(ctx, t.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

func loadTaskForActor(ctx context.Context, r *repository.Repos, actorID, taskID string, action domain.Action) (*domain.Task, *domain.Project, error) {
	t, p, err := loadTaskWithProject(ctx, r, taskID)
	if err != nil {
		return nil, nil, err
	}
	if err := p.Authorize(actorID, action); err != nil {
		return nil, nil, err
	}
	return t, p, nil
}

// loadGraph builds the dependency graph of a project from storage.
func loadGraph(ctx context.Context, r *repository.Repos, projectID string) ([]*domain.Task, *depgraph.Graph, error) {
	tasks, err := r.Tasks.ListByProject(ctx, projectID, repository.TaskFilter{})
	if err != nil {
		return nil, nil, err
	}
	deps, err := r.Dependencies.ListByProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return tasks, depgraph.Build(projectID, tasks, deps), nil
}

func requireMember(p *domain.Project, userID string) error {
	if !p.IsMember(userID) {
		return domain.NewError(domain.ErrNotAMember, "user is not a member of the project",
			"project_id", p.ID, "user_id", userID)
	}
	return nil
}

func indexTasks(tasks []*domain.Task) map[string]*domain.Task {
	byID := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return byID
}

func pickTasks(byID map[string]*domain.Task, ids []string) []*domain.Task {
	picked := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			picked = append(picked, t)
		}
	}
	return picked
}
