package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/google/uuid"
)

type userService struct {
	users    repository.UserRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

func NewUserService(users repository.UserRepo, uow db.UnitOfWork, observers ...UseCaseObserver) UserService {
	return &userService{
		users:    users,
		uow:      uow,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *userService) Register(ctx context.Context, email, displayName string) (user *domain.User, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"email": domain.NormalizeEmail(email)}
	defer func() { finishUseCase(ctx, s.observer, "register-user", startedAt, fields, err) }()

	u := &domain.User{
		ID:          uuid.New().String(),
		Email:       domain.NormalizeEmail(email),
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   startedAt,
	}
	if err = u.Validate(); err != nil {
		return nil, err
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		users := repository.NewSQLiteUserRepo(tx)
		existing, err := users.GetByEmail(ctx, u.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return domain.NewError(domain.ErrConstraintViolation, "email already registered", "email", u.Email)
		}
		return users.Put(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	fields["user_id"] = u.ID
	return u, nil
}

func (s *userService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.GetByEmail(ctx, email)
}

func (s *userService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}
