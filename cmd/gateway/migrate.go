// AngelaMos | 2026
// migrate.go

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/platform-gateway/internal/migrations"
)

func migrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection URL")

	open := func() (*migrations.Runner, error) {
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
		return migrations.New(databaseURL)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				runner, err := open()
				if err != nil {
					return err
				}
				defer closeRunner(runner)
				return runner.Up()
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back the last migration, or the given number of steps",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("steps must be a positive integer, got %q", args[0])
					}
					steps = n
				}

				runner, err := open()
				if err != nil {
					return err
				}
				defer closeRunner(runner)
				return runner.Down(steps)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				runner, err := open()
				if err != nil {
					return err
				}
				defer closeRunner(runner)

				version, dirty, err := runner.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func closeRunner(r *migrations.Runner) {
	if err := r.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close migrations: %v\n", err)
	}
}
