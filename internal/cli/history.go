package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived terminal runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/history"
			if state != "" {
				path += "?state=" + state
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			var runs []model.Run
			if err := json.Unmarshal(resp.Data, &runs); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No archived runs.")
				return nil
			}

			printRunTable(runs)

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(runs), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by terminal status (completed, failed, stopped)")
	return cmd
}
