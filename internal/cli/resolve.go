package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
)

// actorID resolves --as to a user ID.
func actorID(ctx context.Context, app *App) (string, error) {
	if app.As == "" {
		return "", fmt.Errorf("no acting user: pass --as <email> or set %s", ActorEnv)
	}
	u, err := resolveUser(ctx, app, app.As)
	if err != nil {
		return "", fmt.Errorf("resolving acting user: %w", err)
	}
	return u.ID, nil
}

// resolveUser accepts an email, a full ID or a unique ID prefix.
func resolveUser(ctx context.Context, app *App, input string) (*domain.User, error) {
	if strings.Contains(input, "@") {
		return app.Users.GetUserByEmail(ctx, input)
	}
	u, err := app.Users.GetUser(ctx, input)
	if !errors.Is(err, domain.ErrNotFound) {
		return u, err
	}

	users, err := app.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	id, err := matchPrefix("user", input, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.NotFound("user", input)
}

// resolveProjectID accepts a full project ID or a unique prefix among the
// actor's projects.
func resolveProjectID(ctx context.Context, app *App, actor, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("project ID is required")
	}
	projects, err := app.Projects.ListProjects(ctx, actor)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	id, err := matchPrefix("project", input, ids)
	if errors.Is(err, domain.ErrNotFound) {
		// Let the service decide between NotFound and Unauthorized.
		return input, nil
	}
	return id, err
}

// resolveTaskID accepts a full task ID or a unique prefix among the tasks of
// the actor's projects.
func resolveTaskID(ctx context.Context, app *App, actor, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("task ID is required")
	}
	projects, err := app.Projects.ListProjects(ctx, actor)
	if err != nil {
		return "", err
	}
	var ids []string
	for _, p := range projects {
		tasks, err := app.Tasks.ListTasks(ctx, actor, p.ID, repository.TaskFilter{})
		if err != nil {
			return "", err
		}
		for _, t := range tasks {
			ids = append(ids, t.ID)
		}
	}
	id, err := matchPrefix("task", input, ids)
	if errors.Is(err, domain.ErrNotFound) {
		return input, nil
	}
	return id, err
}

// matchPrefix picks the single id equal to or starting with input.
func matchPrefix(kind, input string, ids []string) (string, error) {
	var matches []string
	for _, id := range ids {
		if id == input {
			return id, nil
		}
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", domain.NotFound(kind, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(matches))
	}
}

// userNames indexes every registered user for display.
func userNames(ctx context.Context, app *App) (formatter.Names, error) {
	users, err := app.Users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return formatter.NamesOf(users), nil
}
