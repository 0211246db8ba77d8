package main

import (
	"github.com/spf13/cobra"

	"github.com/ahmaruff/todos-api/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the todos table and its indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			return database.Migrate(a.log)
		},
	}
}
