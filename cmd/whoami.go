package cmd

import (
	"fmt"

	"github.com/logship-io/logsh/internal"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user on the active connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		mgr := newManager(state)
		d := internal.NewDispatcher(internal.DefaultRetryPolicy())

		err = withReauth(ctx, mgr, func(active *internal.ActiveContext) error {
			user, err := internal.WhoAmI(ctx, d, active)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s) on connection %q, account %q\n",
				user.UserName, user.UserID, active.Profile.Name, active.Account.Label)
			return nil
		})
		if err != nil {
			return err
		}
		return saveIfDirty(state)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
