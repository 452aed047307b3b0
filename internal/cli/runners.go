package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newRunnersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runners",
		Short: "List registered runners",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/runners/")
			if err != nil {
				return fmt.Errorf("list runners: %w", err)
			}

			var runners []model.Runner
			if err := json.Unmarshal(resp.Data, &runners); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(runners) == 0 {
				fmt.Println("No runners registered.")
				return nil
			}

			fmt.Printf("%-42s  %-9s  %-12s  %-20s  %s\n", "ID", "STATE", "PROFILE", "TAGS", "LAST HEARTBEAT")
			fmt.Printf("%-42s  %-9s  %-12s  %-20s  %s\n", "----", "-----", "-------", "----", "--------------")
			for _, rn := range runners {
				tags := strings.Join(rn.Tags, ",")
				if rn.StrictTags {
					tags += " (strict)"
				}
				fmt.Printf("%-42s  %-9s  %-12s  %-20s  %s\n",
					rn.ID, rn.State, rn.Profile, tags, rn.LastHeartbeat.Format("15:04:05"))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "deregister <runner_id>",
		Short: "Drain and deregister a runner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Delete("/api/v1/runners/" + args[0]); err != nil {
				return fmt.Errorf("deregister runner: %w", err)
			}
			fmt.Printf("Runner %s is draining\n", args[0])
			return nil
		},
	})

	return cmd
}
