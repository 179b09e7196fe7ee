package cli

import (
	"fmt"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
		newProjectRemoveCmd(app),
	)
	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var in service.CreateProjectInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a project owned by the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			p, err := app.Projects.CreateProject(ctx, actor, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s %s\n", formatter.Bold(p.Name), formatter.TruncID(p.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Project description")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the acting user's projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			projects, err := app.Projects.ListProjects(ctx, actor)
			if err != nil {
				return err
			}
			names, err := userNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects, names))
			return nil
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project with its members and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			p, err := app.Projects.GetProject(ctx, actor, projectID)
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.ListTasks(ctx, actor, p.ID, repository.TaskFilter{})
			if err != nil {
				return err
			}
			names, err := userNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectShow(p, names, tasks))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	var name, description string
	var status domain.ProjectStatus

	cmd := &cobra.Command{
		Use:   "update <project>",
		Short: "Update a project's name, description or status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}

			var patch service.ProjectPatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}

			p, err := app.Projects.UpdateProject(ctx, actor, projectID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s %s\n", formatter.Bold(p.Name), formatter.StatusPill(p.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().Var(&projectStatusValue{status: &status}, "status", "New status (ACTIVE, ARCHIVED, COMPLETED)")
	return cmd
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <project>",
		Aliases: []string{"delete"},
		Short:   "Delete a project with all of its tasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.DeleteProject(ctx, actor, projectID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", formatter.TruncID(projectID))
			return nil
		},
	}
}
