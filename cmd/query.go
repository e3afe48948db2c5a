package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/logship-io/logsh/internal"
	"github.com/logship-io/logsh/internal/ui"
	"github.com/spf13/cobra"
)

var (
	queryOutput  string
	queryTimeout time.Duration
)

var queryCmd = &cobra.Command{
	Use:   "query [query string]",
	Short: "Run a query against the active account",
	Long: `Runs a query server-side and prints the result. The query string is
taken from the arguments, or from stdin when no argument is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if strings.TrimSpace(query) == "" {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading query from stdin: %w", err)
			}
			query = string(b)
		}

		state, err := loadState()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		mgr := newManager(state)
		d := internal.NewDispatcher(internal.DefaultRetryPolicy())

		var result *internal.QueryResult
		err = withReauth(ctx, mgr, func(active *internal.ActiveContext) error {
			result, err = internal.RunQuery(ctx, d, active, query, queryTimeout)
			return err
		})
		if err != nil {
			return err
		}
		if err := saveIfDirty(state); err != nil {
			return err
		}
		return renderResult(result, queryOutput)
	},
}

func renderResult(result *internal.QueryResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "csv":
		return internal.WriteCSV(result, os.Stdout)
	case "table", "":
		rows := make([][]string, 0, len(result.Results))
		for _, r := range result.Results {
			row := make([]string, len(result.Header))
			for i, h := range result.Header {
				if v, ok := r[h]; ok {
					row[i] = internal.CellString(v)
				}
			}
			rows = append(rows, row)
		}
		fmt.Print(ui.RenderTable(result.Header, rows))
		return nil
	}
	return fmt.Errorf("unknown output format %q, expected table, json or csv", format)
}

func init() {
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "table", "Output format: table, json or csv")
	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", internal.QueryTimeout, "Query timeout")
	rootCmd.AddCommand(queryCmd)
}
