package cli

import (
	"fmt"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newDepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage task dependencies",
	}
	cmd.AddCommand(
		newDepAddCmd(app),
		newDepRemoveCmd(app),
		newDepListCmd(app),
	)
	return cmd
}

// resolveTaskPair resolves the two task arguments shared by dep add and rm.
func resolveTaskPair(cmd *cobra.Command, app *App, args []string) (actor, taskID, dependsOnID string, err error) {
	ctx := cmd.Context()
	if actor, err = actorID(ctx, app); err != nil {
		return "", "", "", err
	}
	if taskID, err = resolveTaskID(ctx, app, actor, args[0]); err != nil {
		return "", "", "", err
	}
	if dependsOnID, err = resolveTaskID(ctx, app, actor, args[1]); err != nil {
		return "", "", "", err
	}
	return actor, taskID, dependsOnID, nil
}

func newDepAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task> <depends-on>",
		Short: "Record that a task depends on another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, taskID, dependsOnID, err := resolveTaskPair(cmd, app, args)
			if err != nil {
				return err
			}
			if err := app.Tasks.AddDependency(cmd.Context(), actor, taskID, dependsOnID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now depends on %s\n",
				formatter.ShortID(taskID), formatter.ShortID(dependsOnID))
			return nil
		},
	}
}

func newDepRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task> <depends-on>",
		Short: "Remove a dependency edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, taskID, dependsOnID, err := resolveTaskPair(cmd, app, args)
			if err != nil {
				return err
			}
			if err := app.Tasks.RemoveDependency(cmd.Context(), actor, taskID, dependsOnID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s no longer depends on %s\n",
				formatter.ShortID(taskID), formatter.ShortID(dependsOnID))
			return nil
		},
	}
}

func newDepListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task>",
		Short: "Show what a task depends on, what depends on it and what blocks it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			taskID, err := resolveTaskID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.GetTask(ctx, actor, taskID)
			if err != nil {
				return err
			}
			deps, err := app.Tasks.ListDependencies(ctx, actor, taskID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDependencies(t, deps))
			return nil
		},
	}
}
