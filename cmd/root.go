package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConnection string
	flagAccount    string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "logsh",
	Short: "logsh is the CLI client for the Logship log-analytics platform",
	Long: `logsh manages connections to Logship servers, keeps authenticated
sessions alive, runs queries and uploads data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConnection, "connection", "c", "", "Connection to use instead of the default")
	rootCmd.PersistentFlags().StringVarP(&flagAccount, "account", "a", "", "Account to use instead of the connection default")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the CLI. Any surfaced error exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
