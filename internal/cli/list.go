package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/runs/"
			if state != "" {
				path += "?state=" + state
			}
			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			var runs []model.Run
			if err := json.Unmarshal(resp.Data, &runs); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(runs) == 0 {
				fmt.Println("No runs found.")
				return nil
			}

			printRunTable(runs)

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(runs), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by status (pending, claimed, running, stopping, completed, failed, stopped)")
	return cmd
}

func printRunTable(runs []model.Run) {
	fmt.Printf("%-42s  %-10s  %-20s  %s\n", "ID", "STATUS", "SESSION", "CREATED")
	fmt.Printf("%-42s  %-10s  %-20s  %s\n", "----", "------", "-------", "-------")
	for _, run := range runs {
		fmt.Printf("%-42s  %-10s  %-20s  %s\n",
			run.ID, run.Status, run.SessionName, run.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
