package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahmaruff/todos-api/internal/database"
	"github.com/ahmaruff/todos-api/internal/repository"
	"github.com/ahmaruff/todos-api/internal/services"
)

func newExportCmd(a *app) *cobra.Command {
	var input services.FilterInput

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching todos to a spreadsheet in the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}

			service := services.NewTodoService(
				repository.NewTodoRepository(database.GetDB()),
				a.activityLog().WithConsole(),
				a.cfg.ExportDir,
			)

			filter, err := service.ParseFilter(input)
			if err != nil {
				return err
			}

			result, err := service.Export(cmd.Context(), filter)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "total_row: %d\ntotal_time_tracked: %d\nfilename: %s\n",
				result.TotalRow, result.TotalTimeTracked, result.Filename)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input.Title, "title", "", "Title substring")
	flags.StringVar(&input.Assignee, "assignee", "", "Comma-separated assignee names")
	flags.StringVar(&input.Status, "status", "", "Status (pending, open, in_progress, completed)")
	flags.StringVar(&input.Priority, "priority", "", "Priority (low, medium, high)")
	flags.StringVar(&input.Start, "start", "", "Earliest due date (YYYY-MM-DD)")
	flags.StringVar(&input.End, "end", "", "Latest due date (YYYY-MM-DD)")
	flags.StringVar(&input.Min, "min", "", "Minimum time tracked")
	flags.StringVar(&input.Max, "max", "", "Maximum time tracked")
	return cmd
}
