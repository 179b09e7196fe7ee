package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/alexanderramin/cybertask/internal/domain"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskShowCmd(app),
		newTaskUpdateCmd(app),
		newTaskMoveCmd(app),
		newTaskAssignCmd(app),
		newTaskUnassignCmd(app),
		newTaskRemoveCmd(app),
	)
	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var (
		project, assignee string
		in                service.CreateTaskInput
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task in TODO",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			if in.ProjectID, err = resolveProjectID(ctx, app, actor, project); err != nil {
				return err
			}
			if assignee != "" {
				u, err := resolveUser(ctx, app, assignee)
				if err != nil {
					return err
				}
				in.AssigneeID = &u.ID
			}
			t, err := app.Tasks.CreateTask(ctx, actor, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s %s %s\n",
				formatter.Bold(t.Title), formatter.TruncID(t.ID), formatter.PriorityBadge(t.Priority))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&project, "project", "", "Project ID or prefix")
	f.StringVar(&in.Title, "title", "", "Task title")
	f.StringVar(&in.Description, "description", "", "Task description")
	f.Var(newPriorityValue(&in.Priority), "priority", "LOW, MEDIUM, HIGH or URGENT (default MEDIUM)")
	f.StringVar(&assignee, "assignee", "", "Assignee email or ID")
	f.Var(&dateValue{date: &in.DueDate}, "due", "Due date (YYYY-MM-DD)")
	f.StringSliceVar(&in.Tags, "tag", nil, "Tag (repeatable)")
	f.Var(&hoursValue{hours: &in.EstimatedHours}, "estimate", "Estimated hours")
	f.Var(&hoursValue{hours: &in.ActualHours}, "actual", "Hours spent so far")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var (
		project, assignee, tag, order string
		filter                        repository.TaskFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a project's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			projectID, err := resolveProjectID(ctx, app, actor, project)
			if err != nil {
				return err
			}

			var tasks []*domain.Task
			switch order {
			case "created", "priority":
				if assignee != "" {
					u, err := resolveUser(ctx, app, assignee)
					if err != nil {
						return err
					}
					filter.AssigneeID = u.ID
				}
				filter.Tag = tag
				tasks, err = app.Tasks.ListTasks(ctx, actor, projectID, filter)
				if err == nil && order == "priority" {
					domain.SortByPriority(tasks)
				}
			case "topo":
				if filter.Status != "" || assignee != "" || tag != "" {
					return fmt.Errorf("--order topo cannot be combined with filters")
				}
				tasks, err = app.Tasks.ListTasksInOrder(ctx, actor, projectID)
			default:
				return fmt.Errorf("--order must be created, priority or topo, got %q", order)
			}
			if err != nil {
				return err
			}

			names, err := userNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskList(tasks, names, app.now()))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&project, "project", "", "Project ID or prefix")
	f.Var(newStatusValue(&filter.Status), "status", "Only tasks in this status")
	f.StringVar(&assignee, "assignee", "", "Only tasks assigned to this user")
	f.StringVar(&tag, "tag", "", "Only tasks carrying this tag")
	f.StringVar(&order, "order", "created", "created, priority (most urgent first), or topo for dependency order")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task with its dependencies",
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
			names, err := userNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskShow(t, names, deps, app.now()))
			return nil
		},
	}
}

func newTaskUpdateCmd(app *App) *cobra.Command {
	var (
		title, description string
		status             domain.TaskStatus
		priority           domain.Priority
		due                *time.Time
		tags               []string
		estimate, actual   *float64
		clearDue           bool
	)

	cmd := &cobra.Command{
		Use:   "update <task>",
		Short: "Edit task fields and optionally move its status",
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

			f := cmd.Flags()
			patch := domain.TaskPatch{
				DueDate:        due,
				ClearDueDate:   clearDue,
				EstimatedHours: estimate,
				ActualHours:    actual,
			}
			if f.Changed("title") {
				patch.Title = &title
			}
			if f.Changed("description") {
				patch.Description = &description
			}
			if f.Changed("status") {
				patch.Status = &status
			}
			if f.Changed("priority") {
				patch.Priority = &priority
			}
			if f.Changed("tag") {
				patch.Tags = &tags
			}

			t, err := app.Tasks.UpdateTask(ctx, actor, taskID, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s %s\n", formatter.Bold(t.Title), formatter.TaskStatusPill(t.Status))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "New title")
	f.StringVar(&description, "description", "", "New description")
	f.Var(newStatusValue(&status), "status", "New status")
	f.Var(newPriorityValue(&priority), "priority", "New priority")
	f.Var(&dateValue{date: &due}, "due", "New due date (YYYY-MM-DD)")
	f.BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	f.StringSliceVar(&tags, "tag", nil, "Replace tags (repeatable)")
	f.Var(&hoursValue{hours: &estimate}, "estimate", "Estimated hours")
	f.Var(&hoursValue{hours: &actual}, "actual", "Hours spent so far")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newTaskMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task> <status>",
		Short: "Move a task along its status lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var status domain.TaskStatus
			if err := newStatusValue(&status).Set(args[1]); err != nil {
				return fmt.Errorf("invalid status %q: %w", args[1], err)
			}
			actor, err := actorID(ctx, app)
			if err != nil {
				return err
			}
			taskID, err := resolveTaskID(ctx, app, actor, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.UpdateTask(ctx, actor, taskID, domain.TaskPatch{Status: &status})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", formatter.Bold(t.Title), formatter.TaskStatusPill(t.Status))
			return nil
		},
	}
}

func newTaskAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task> <user>",
		Short: "Assign a task to a project member",
		Args:  cobra.ExactArgs(2),
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
			u, err := resolveUser(ctx, app, args[1])
			if err != nil {
				return err
			}
			t, err := app.Tasks.Assign(ctx, actor, taskID, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", formatter.Bold(t.Title), u.DisplayName)
			return nil
		},
	}
}

func newTaskUnassignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <task>",
		Short: "Clear a task's assignee",
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
			t, err := app.Tasks.Unassign(ctx, actor, taskID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unassigned %s\n", formatter.Bold(t.Title))
			return nil
		},
	}
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <task>",
		Aliases: []string{"delete"},
		Short:   "Delete a task with its comments and dependency edges",
		Args:    cobra.ExactArgs(1),
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
			if err := app.Tasks.DeleteTask(ctx, actor, taskID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", formatter.TruncID(taskID))
			return nil
		},
	}
}
