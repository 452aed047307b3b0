package cli

import (
	"log/slog"
	"os"

	"github.com/me/runhub/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default coordinator URL, checking RUNHUB_SERVER first.
func defaultServer() string {
	if s := os.Getenv("RUNHUB_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the runhub CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "runhub",
		Short: "runhub - run coordination for remote runners",
		Long:  "runhub submits, inspects, and stops runs on a runhub coordinator.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Coordinator URL (or RUNHUB_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSubmitCmd(),
		newStatusCmd(),
		newListCmd(),
		newStopCmd(),
		newRunnersCmd(),
		newSessionsCmd(),
		newHistoryCmd(),
	)

	return root
}
