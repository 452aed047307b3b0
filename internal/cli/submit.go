package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/me/runhub/pkg/model"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		payload     string
		payloadFile string
		kind        string
		parent      string
		profile     string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "submit <session_name>",
		Short: "Submit a run to a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if payloadFile != "" {
				var data []byte
				var err error
				if payloadFile == "-" {
					data, err = io.ReadAll(os.Stdin)
				} else {
					data, err = os.ReadFile(payloadFile)
				}
				if err != nil {
					return fmt.Errorf("read payload: %w", err)
				}
				payload = string(data)
			}

			req := model.SubmitRunRequest{
				SessionName:       args[0],
				Kind:              model.RunKind(strings.ToUpper(kind)),
				Payload:           payload,
				ParentSessionName: parent,
			}
			if profile != "" || len(tags) > 0 {
				req.Demand = &model.DemandSpec{Profile: profile, Tags: tags}
			}

			resp, err := client.Post("/api/v1/runs/", req)
			if err != nil {
				return fmt.Errorf("submit run: %w", err)
			}

			var run model.Run
			if err := json.Unmarshal(resp.Data, &run); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Run submitted: %s\n", run.ID)
			fmt.Printf("  Session: %s\n", run.SessionName)
			fmt.Printf("  Status:  %s\n", run.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "Run payload (instruction text)")
	cmd.Flags().StringVarP(&payloadFile, "payload-file", "f", "", "Read payload from file ('-' for stdin)")
	cmd.Flags().StringVar(&kind, "kind", "start", "Run kind (start, resume)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent session to notify on completion")
	cmd.Flags().StringVar(&profile, "profile", "", "Required runner profile")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Required runner tag (repeatable)")

	return cmd
}
