package cmd

import (
	"fmt"

	"github.com/logship-io/logsh/internal"
	"github.com/logship-io/logsh/internal/ui"
	"github.com/spf13/cobra"
)

var uploadSchema string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a CSV or TSV file to the active account",
	Long: `Uploads a delimited file in batches. Uploads are never retried
automatically; re-run the command if a batch fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		mgr := newManager(state)
		d := internal.NewDispatcher(internal.DefaultRetryPolicy())

		// No re-auth retry here: re-running the upload after a mid-file 401
		// would duplicate already-committed batches.
		active, err := mgr.AcquireContext(ctx, flagConnection, flagAccount)
		if err != nil {
			return err
		}
		res, err := ui.Spin(fmt.Sprintf("Uploading %s", args[0]), func() (any, error) {
			return internal.Upload(ctx, d, active, uploadSchema, args[0])
		})
		total, _ := res.(int)
		if err != nil {
			return err
		}
		if err := saveIfDirty(state); err != nil {
			return err
		}
		fmt.Printf("Uploaded %d record(s).\n", total)
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadSchema, "schema", "", "Schema name the records belong to")
	uploadCmd.MarkFlagRequired("schema")
	rootCmd.AddCommand(uploadCmd)
}
