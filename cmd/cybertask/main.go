package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/cybertask/internal/api"
	"github.com/alexanderramin/cybertask/internal/cli"
	"github.com/alexanderramin/cybertask/internal/cli/formatter"
	"github.com/alexanderramin/cybertask/internal/config"
	"github.com/alexanderramin/cybertask/internal/db"
	"github.com/alexanderramin/cybertask/internal/repository"
	"github.com/alexanderramin/cybertask/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

// configEnv names the environment variable consulted when --config is absent.
const configEnv = "CYBERTASK_CONFIG"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, formatter.FormatError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	path, optional := configPath(args)
	cfg, err := config.Load(path, optional)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	fd := os.Stdout.Fd()
	formatter.SetColor(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))

	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories and the unit of work shared by every service.
	repos := repository.NewSQLiteRepos(database)
	uow := db.NewSQLiteUnitOfWork(database)
	locks := service.NewProjectLocks()

	var observers []service.UseCaseObserver
	if cfg.Log.UseCases {
		observers = append(observers, service.NewSlogUseCaseObserver(logger))
	}

	svc := api.Services{
		Users:    service.NewUserService(repos.Users, uow, observers...),
		Projects: service.NewProjectService(repos, uow, locks, observers...),
		Tasks:    service.NewTaskService(repos, uow, locks, observers...),
	}

	app := &cli.App{
		Users:    svc.Users,
		Projects: svc.Projects,
		Tasks:    svc.Tasks,
		Import:   service.NewImportService(uow, observers...),
		Serve: func(ctx context.Context) error {
			return api.NewServer(svc, logger).Start(ctx, cfg.Server.Bind, cfg.Server.ShutdownTimeout.Duration)
		},
	}

	root := cli.NewRootCmd(app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// configPath pre-parses --config so the database can be opened before the
// command tree runs. The default file may be absent; an explicit one may not.
func configPath(args []string) (path string, optional bool) {
	fs := pflag.NewFlagSet("cybertask", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	flag := fs.String("config", "", "")
	_ = fs.Parse(args)

	if *flag != "" {
		return *flag, false
	}
	if env := os.Getenv(configEnv); env != "" {
		return env, false
	}
	return config.DefaultPath, true
}
