package cli

import (
	"context"
	"os"
	"time"

	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/spf13/cobra"
)

// ActorEnv names the environment variable used when --as is not given.
const ActorEnv = "CYBERTASK_USER"

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Users    service.UserService
	Projects service.ProjectService
	Tasks    service.TaskService
	Import   service.ImportService

	// Serve runs the HTTP API until ctx is cancelled. Nil disables serve.
	Serve func(ctx context.Context) error

	// Now is the clock used for relative dates. Nil means time.Now.
	Now func() time.Time

	// As is the acting user's email or ID, bound to the --as flag.
	As string
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// NewRootCmd creates the top-level "cybertask" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "cybertask",
		Short:         "Collaborative task tracker with dependency-aware planning",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&app.As, "as", os.Getenv(ActorEnv),
		"Acting user email or ID (env "+ActorEnv+")")
	root.PersistentFlags().String("config", "", "Config file (default ~/.cybertask/config.toml)")

	root.AddCommand(
		newServeCmd(app),
		newUserCmd(app),
		newProjectCmd(app),
		newMemberCmd(app),
		newTaskCmd(app),
		newDepCmd(app),
		newCommentCmd(app),
		newImportCmd(app),
	)

	return root
}
