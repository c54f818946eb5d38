package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"captzio/internal/bootstrap"
	"captzio/internal/infra"
)

// cli carries state shared by subcommands. The container is only built for
// commands that touch the database.
type cli struct {
	cfg    *infra.Config
	logger infra.Logger
	c      *bootstrap.Container
}

func main() {
	_ = godotenv.Load()

	app := &cli{}
	root := &cobra.Command{
		Use:           "captzioctl",
		Short:         "Operate a Captzio deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			app.cfg = cfg
			app.logger = infra.Component(infra.NewLogger(cfg.AppEnv), "captzioctl")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.c != nil {
				app.c.Close()
			}
		},
	}

	root.AddCommand(
		dbCommand(app),
		creditsCommand(app),
		roleCommand(app),
		accountsCommand(app),
		jobsCommand(app),
		tokenCommand(app),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *cli) container(ctx context.Context) (*bootstrap.Container, error) {
	if a.c != nil {
		return a.c, nil
	}
	c, err := bootstrap.New(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.c = c
	return c, nil
}
