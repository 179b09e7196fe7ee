package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/depgraph"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/importer"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/google/uuid"
)

type importService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

// NewImportService builds the bundle importer. Every import runs in a single
// transaction over a brand-new project, so no project lock is taken.
func NewImportService(uow db.UnitOfWork, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportFile(ctx context.Context, filePath string) (*ImportResult, error) {
	bundle, err := importer.LoadBundle(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportBundle(ctx, bundle)
}

func (s *importService) ImportBundle(ctx context.Context, bundle *importer.Bundle) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project": bundle.Project.Name, "tasks": len(bundle.Tasks)}
	defer func() { finishUseCase(ctx, s.observer, "import-bundle", startedAt, fields, err) }()

	if errs := importer.ValidateBundle(bundle); len(errs) > 0 {
		return nil, &importer.ValidationError{Problems: errs}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := repository.NewSQLiteRepos(tx)
		res, err := importInto(ctx, r, bundle, startedAt)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["project_id"] = result.Project.ID
	return result, nil
}

func importInto(ctx context.Context, r *repository.Repos, b *importer.Bundle, now time.Time) (*ImportResult, error) {
	result := &ImportResult{}

	for _, u := range b.Users {
		created, err := ensureUser(ctx, r, u, now)
		if err != nil {
			return nil, err
		}
		if created {
			result.UserCount++
		}
	}

	people := importer.People{}
	owner, err := r.Users.GetByEmail(ctx, b.Owner)
	if err != nil {
		return nil, fmt.Errorf("resolving owner: %w", err)
	}
	people[owner.Email] = owner.ID

	p := &domain.Project{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(b.Project.Name),
		Description: b.Project.Description,
		OwnerID:     owner.ID,
		MemberIDs:   []string{owner.ID},
		Status:      domain.ProjectActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, email := range b.Members {
		u, err := r.Users.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("resolving member: %w", err)
		}
		people[u.Email] = u.ID
		p.AddMember(u.ID)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := r.Projects.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	result.Project = p
	result.MemberCount = len(p.MemberIDs)

	g := depgraph.New(p.ID)
	ids := make(map[string]string, len(b.Tasks))
	for _, ti := range b.Tasks {
		t, err := importer.ConvertTask(ti, p.ID, owner.ID, people, now)
		if err != nil {
			return nil, err
		}
		if err := r.Tasks.Put(ctx, t); err != nil {
			return nil, fmt.Errorf("creating task %q: %w", ti.Ref, err)
		}
		ids[ti.Ref] = t.ID
		g.AddNode(depgraph.NodeOf(t))
	}
	result.TaskCount = len(ids)

	for _, ti := range b.Tasks {
		for _, ref := range ti.DependsOn {
			from, to := ids[ti.Ref], ids[ref]
			if g.HasEdge(from, to) {
				continue
			}
			if err := g.AddEdge(from, to); err != nil {
				return nil, fmt.Errorf("task %q depends on %q: %w", ti.Ref, ref, err)
			}
			dep := &domain.Dependency{TaskID: from, DependsOnID: to, CreatedAt: now}
			if err := r.Dependencies.Create(ctx, dep); err != nil {
				return nil, fmt.Errorf("creating dependency: %w", err)
			}
			result.DependencyCount++
		}
	}
	return result, nil
}

// ensureUser registers u unless a user with that email already exists.
func ensureUser(ctx context.Context, r *repository.Repos, u importer.UserImport, now time.Time) (bool, error) {
	email := domain.NormalizeEmail(u.Email)
	_, err := r.Users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	user := &domain.User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: strings.TrimSpace(u.DisplayName),
		CreatedAt:   now,
	}
	if err := user.Validate(); err != nil {
		return false, err
	}
	if err := r.Users.Put(ctx, user); err != nil {
		return false, fmt.Errorf("creating user %q: %w", email, err)
	}
	return true, nil
}
