package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <run_id>",
		Short: "Ask the run's current runner to wind it down",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/runs/"+args[0]+"/stop", nil)
			if err != nil {
				return fmt.Errorf("stop run: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run %s is %s (runner %s)\n", run.ID, run.Status, run.RunnerID)
			return nil
		},
	}
}
