package cli

import (
	"fmt"

	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newMemberCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage project membership",
	}
	cmd.AddCommand(
		newMemberAddCmd(app),
		newMemberRemoveCmd(app),
		newMemberTransferCmd(app),
	)
	return cmd
}

func newMemberAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <user>",
		Short: "Add a user to a project",
		Args:  cobra.ExactArgs(2),
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
			u, err := resolveUser(ctx, app, args[1])
			if err != nil {
				return err
			}
			p, err := app.Projects.AddMember(ctx, actor, projectID, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s (%d members)\n", u.DisplayName, p.Name, len(p.MemberIDs))
			return nil
		},
	}
}

func newMemberRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <project> <user>",
		Short: "Remove a user from a project and unassign their tasks",
		Args:  cobra.ExactArgs(2),
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
			u, err := resolveUser(ctx, app, args[1])
			if err != nil {
				return err
			}
			res, err := app.Projects.RemoveMember(ctx, actor, projectID, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRemoveMember(res, u.DisplayName))
			return nil
		},
	}
}

func newMemberTransferCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <project> <user>",
		Short: "Make another member the project owner",
		Args:  cobra.ExactArgs(2),
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
			u, err := resolveUser(ctx, app, args[1])
			if err != nil {
				return err
			}
			p, err := app.Projects.TransferOwnership(ctx, actor, projectID, u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now owns %s\n", u.DisplayName, p.Name)
			return nil
		},
	}
}
