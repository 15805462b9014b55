package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/providers"
)

func (c *cli) scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Book every client's default slots for a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := c.targetWeek(cmd.Context())
			if err != nil {
				return err
			}
			report, err := c.container.Scheduler.RunAutoSchedule(cmd.Context(), week)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	c.addWeekFlag(cmd)
	return cmd
}

func (c *cli) resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Relocate blocking appointments so under-quota clients get their slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := c.targetWeek(cmd.Context())
			if err != nil {
				return err
			}
			report, err := c.container.Resolver.RunAutoResolve(cmd.Context(), week)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	c.addWeekFlag(cmd)
	return cmd
}

func (c *cli) clearWeekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear-week",
		Short: "Delete every appointment of a week without refunding credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			week, err := c.targetWeek(cmd.Context())
			if err != nil {
				return err
			}
			result, err := c.container.Booking.ClearWeek(cmd.Context(), week)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	c.addWeekFlag(cmd)
	return cmd
}

func (c *cli) weekCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "week [YYYY-MM-DD]",
		Short: "Show or set the system planning week",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				week, err := c.container.Settings.GetSystemWeek(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), week)
			}
			week, err := c.container.Settings.SetSystemWeek(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), week)
		},
	}
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.container.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var (
		file  string
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load trainers and clients from a roster file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			roster, err := entities.DecodeRoster(f)
			if err != nil {
				return err
			}
			if err := c.container.Seed(cmd.Context(), roster, reset); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d trainers and %d clients\n", len(roster.Trainers), len(roster.Clients))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "roster.json", "roster JSON file")
	cmd.Flags().BoolVar(&reset, "reset", false, "truncate every table before seeding")
	return cmd
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream appointment events as JSON lines until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.container.EventBus == nil {
				return fmt.Errorf("watch needs Redis (REDIS_ENABLED=true)")
			}
			events, err := c.container.EventBus.Subscribe(cmd.Context(), providers.EventChannelAppointments)
			if err != nil {
				return err
			}
			log.Info().Str("channel", providers.EventChannelAppointments).Msg("Watching appointment events")

			enc := json.NewEncoder(cmd.OutOrStdout())
			for event := range events {
				if err := enc.Encode(event); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
