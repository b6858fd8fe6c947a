package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rpattn/logstack/internal/db"
)

func (a *app) newMigrateCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back database migrations",
		Args:  cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			switch direction {
			case "up":
				return db.RunMigrations(a.cfg.Database)
			case "down":
				if err := db.RollbackMigrations(a.cfg.Database, steps); err != nil {
					return err
				}
				log.Info().Int("steps", steps).Msg("migrations rolled back")
				return nil
			default:
				return fmt.Errorf("unknown direction %q, expected up or down", direction)
			}
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back with down")
	return cmd
}
