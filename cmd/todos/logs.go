package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ahmaruff/todos-api/internal/services"
)

func newLogsCmd(a *app) *cobra.Command {
	var query services.LogQuery

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of a day's activity log, one JSON entry per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service := services.NewLogService(a.cfg.LogDir)
			query = service.Normalize(query)

			entries, err := service.Tail(query)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, entry := range entries {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&query.Date, "date", "", "Day to read (YYYY-MM-DD, default today)")
	flags.IntVar(&query.Limit, "limit", 10, "Number of entries")
	flags.StringVar(&query.Sort, "sort", "asc", "Order, asc or desc")
	return cmd
}
