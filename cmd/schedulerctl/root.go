package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zatekoja/gymscheduler/internal/app"
	"github.com/zatekoja/gymscheduler/internal/infrastructure/observability"
	"github.com/zatekoja/gymscheduler/pkg/config"
)

// opener builds the service container for one command invocation
type opener func(ctx context.Context, envFile string) (*app.Container, error)

func openContainer(ctx context.Context, envFile string) (*app.Container, error) {
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	observability.InitLogger("schedulerctl", cfg.App.Env, cfg.App.LogLevel)

	return app.New(cfg, nil)
}

type cli struct {
	open      opener
	envFile   string
	week      string
	container *app.Container
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           "schedulerctl",
		Short:         "Gym scheduling operations",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			container, err := c.open(cmd.Context(), c.envFile)
			if err != nil {
				return err
			}
			c.container = container
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.container == nil {
				return nil
			}
			return c.container.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before the environment")

	root.AddCommand(
		c.scheduleCmd(),
		c.resolveCmd(),
		c.clearWeekCmd(),
		c.weekCmd(),
		c.migrateCmd(),
		c.seedCmd(),
		c.watchCmd(),
	)
	return root
}

// addWeekFlag registers --week; an empty value means the stored system week.
func (c *cli) addWeekFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.week, "week", "", "week start date (YYYY-MM-DD, a Monday); defaults to the system week")
}

func (c *cli) targetWeek(ctx context.Context) (string, error) {
	if c.week != "" {
		return c.week, nil
	}
	week, err := c.container.Settings.GetSystemWeek(ctx)
	if err != nil {
		return "", err
	}
	return week.WeekStart, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
