package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newCommentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Discuss tasks",
	}
	cmd.AddCommand(
		newCommentAddCmd(app),
		newCommentListCmd(app),
	)
	return cmd
}

func newCommentAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task> <text...>",
		Short: "Comment on a task",
		Args:  cobra.MinimumNArgs(2),
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
			c, err := app.Tasks.AddComment(ctx, actor, taskID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Commented on %s %s\n", formatter.TruncID(taskID), formatter.TruncID(c.ID))
			return nil
		},
	}
}

func newCommentListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task>",
		Short: "List a task's comments, oldest first",
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
			comments, err := app.Tasks.ListComments(ctx, actor, taskID)
			if err != nil {
				return err
			}
			names, err := userNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatComments(comments, names))
			return nil
		},
	}
}
