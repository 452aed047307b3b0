package cli

import (
	"encoding/json"
	"fmt"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/sessions/")
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}

			var sessions []model.Session
			if err := json.Unmarshal(resp.Data, &sessions); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}

			fmt.Printf("%-30s  %-6s  %-7s  %-7s  %s\n", "NAME", "BUSY", "ACTIVE", "TOTAL", "LAST RUN")
			fmt.Printf("%-30s  %-6s  %-7s  %-7s  %s\n", "----", "----", "------", "-----", "--------")
			for _, sess := range sessions {
				busy := "no"
				if sess.IsBusy() {
					busy = "yes"
				}
				fmt.Printf("%-30s  %-6s  %-7d  %-7d  %s\n",
					sess.Name, busy, sess.ActiveRuns, sess.TotalRuns, sess.LastRunAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an idle session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Delete("/api/v1/sessions/" + args[0]); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			fmt.Printf("Session %s deleted\n", args[0])
			return nil
		},
	})

	return cmd
}
