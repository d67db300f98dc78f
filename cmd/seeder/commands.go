package main

import (
	"context"
	"fmt"
	"time"

	"github.com/locvowork/feeltime/internal/database"
	"github.com/locvowork/feeltime/internal/domain"
	"github.com/spf13/cobra"
)

// StoreOpener returns the store a command operates on. The command closes it.
type StoreOpener func(ctx context.Context) (domain.EmotionStore, error)

func NewRootCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seeder",
		Short:         "Seed the feeltime store with synthetic emotion logs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().Int64("seed", 0, "random seed (0 = time based)")

	cmd.AddCommand(
		NewInitCmd(open),
		NewEmployeeCmd(open),
		NewResetCmd(open),
	)
	return cmd
}

// NewInitCmd creates the init command.
func NewInitCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed departments, employees and a month of logs",
		Long: `Seed departments, employees and daily clock events.

The command is non-destructive: it does nothing when the store already has departments.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, _ := cmd.Flags().GetString("preset")
			switch database.SeedPreset(preset) {
			case database.PresetSmall, database.PresetMedium, database.PresetLarge:
			default:
				return fmt.Errorf("unknown preset %q (small, medium, large)", preset)
			}

			return withSeeder(cmd, open, func(ctx context.Context, seeder *database.DataSeeder) error {
				res, err := seeder.SeedInitial(ctx, database.GetPresetConfig(database.SeedPreset(preset)))
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Fprintln(cmd.OutOrStdout(), "Store already has departments; skipping initial seeding.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d events for %d employees in %d departments.\n",
					res.Events, res.Employees, res.Departments)
				return nil
			})
		},
	}

	cmd.Flags().String("preset", string(database.PresetMedium), "data size: small, medium, large")
	return cmd
}

// NewEmployeeCmd creates the employee command.
func NewEmployeeCmd(open StoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Seed a history of daily clock events for one employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			employee, _ := cmd.Flags().GetString("employee")
			days, _ := cmd.Flags().GetInt("days")
			reset, _ := cmd.Flags().GetBool("reset")
			startRaw, _ := cmd.Flags().GetString("start")

			var start time.Time
			if startRaw != "" {
				var err error
				start, err = time.Parse("2006-01-02", startRaw)
				if err != nil {
					return fmt.Errorf("invalid --start %q, expected YYYY-MM-DD", startRaw)
				}
			}

			return withSeeder(cmd, open, func(ctx context.Context, seeder *database.DataSeeder) error {
				res, err := seeder.SeedEmployee(ctx, database.EmployeeSeed{
					EmployeeID: employee,
					Days:       days,
					Reset:      reset,
					Start:      start,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d events for employee %s over %d days.\n", res.Events, employee, days)
				return nil
			})
		},
	}

	cmd.Flags().StringP("employee", "e", "E12345", "employee id")
	cmd.Flags().IntP("days", "d", 60, "number of days to seed")
	cmd.Flags().Bool("reset", false, "delete all data first")
	cmd.Flags().StringP("start", "s", "", "last seeded day as YYYY-MM-DD (default today)")
	return cmd
}

// NewResetCmd creates the reset command.
func NewResetCmd(open StoreOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every department, employee and emotion log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSeeder(cmd, open, func(ctx context.Context, seeder *database.DataSeeder) error {
				if err := seeder.ClearData(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Store cleared.")
				return nil
			})
		},
	}
}

func withSeeder(cmd *cobra.Command, open StoreOpener, fn func(context.Context, *database.DataSeeder) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := open(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var opts []database.SeederOption
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		opts = append(opts, database.WithSeed(seed))
	}
	return fn(ctx, database.NewDataSeeder(store, opts...))
}
