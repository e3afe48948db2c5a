package cmd

import (
	"fmt"

	"github.com/logship-io/logsh/internal"
	"github.com/spf13/cobra"
)

var logoutForget bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Invalidate the cached session for the active account",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		profile, account, err := state.Resolve(flagConnection, flagAccount)
		if err != nil {
			return err
		}

		if logoutForget {
			internal.ForgetCredential(state, account.ID.String())
		} else {
			state.InvalidateCredential(account.ID.String())
		}
		if err := saveIfDirty(state); err != nil {
			return err
		}
		fmt.Printf("Logged out of connection %q, account %q.\n", profile.Name, account.Label)
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutForget, "forget", false, "Also remove a stored API key")
	rootCmd.AddCommand(logoutCmd)
}
