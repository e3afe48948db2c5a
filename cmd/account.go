package cmd

import (
	"fmt"

	"github.com/logship-io/logsh/internal/ui"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts of the active connection",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts on the active connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		profile, err := state.ResolveConnection(flagConnection)
		if err != nil {
			return err
		}

		var rows [][]string
		for _, a := range profile.Accounts {
			def := ""
			if a.Default {
				def = ui.DefaultStyle.Render("*")
			}
			rows = append(rows, []string{def, a.Label, a.ID.String(), string(a.AuthMethod)})
		}
		if len(rows) == 0 {
			fmt.Printf("Connection %q has no accounts.\n", profile.Name)
			return nil
		}
		fmt.Print(ui.RenderTable([]string{"", "LABEL", "ACCOUNT ID", "AUTH"}, rows))
		return nil
	},
}

var accountDefaultCmd = &cobra.Command{
	Use:   "default <label>",
	Short: "Set the default account for the active connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		profile, err := state.ResolveConnection(flagConnection)
		if err != nil {
			return err
		}
		if err := state.SetDefaultAccount(profile.Name, args[0]); err != nil {
			return err
		}
		if err := saveIfDirty(state); err != nil {
			return err
		}
		fmt.Printf("Default account on %q is now %q.\n", profile.Name, args[0])
		return nil
	},
}

func init() {
	accountCmd.AddCommand(accountListCmd, accountDefaultCmd)
	rootCmd.AddCommand(accountCmd)
}
