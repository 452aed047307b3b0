package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <run_id>",
		Short: "Check the status of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runs/" + args[0])
			if err != nil {
				return fmt.Errorf("get run: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run: %s\n", run.ID)
			fmt.Printf("  Session: %s\n", run.SessionName)
			fmt.Printf("  Kind:    %s\n", run.Kind)
			fmt.Printf("  Status:  %s\n", run.Status)
			if run.RunnerID != "" {
				fmt.Printf("  Runner:  %s\n", run.RunnerID)
			}
			if run.Demand != nil && !run.Demand.IsZero() {
				fmt.Printf("  Demand:  profile=%s tags=%v\n", run.Demand.Profile, run.Demand.Tags)
			}
			if run.Error != "" {
				fmt.Printf("  Error:   %s\n", run.Error)
			}
			fmt.Printf("  Created: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
			if run.CompletedAt != nil {
				fmt.Printf("  Completed: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}
