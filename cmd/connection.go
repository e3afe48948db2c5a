package cmd

import (
	"fmt"

	"github.com/logship-io/logsh/internal"
	"github.com/logship-io/logsh/internal/ui"
	"github.com/spf13/cobra"
)

var (
	addEndpoint   string
	addUsername   string
	addAPIKey     string
	addDevice     bool
	addInsecure   bool
	addSetDefault bool
)

var connectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Manage server connections",
}

var connectionAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a server connection and log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		method := internal.AuthPassword
		switch {
		case addAPIKey != "":
			method = internal.AuthAPIKey
		case addDevice:
			method = internal.AuthDevice
		case addUsername == "":
			return fmt.Errorf("one of --username, --api-key or --device is required")
		}

		state, err := loadState()
		if err != nil {
			return err
		}
		profile, err := state.AddConnection(name, addEndpoint, internal.AddOptions{
			InsecureSkipVerify: addInsecure,
			SetDefault:         addSetDefault,
		})
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		mgr := newManager(state)
		cred, err := mgr.Login(ctx, profile, method, addUsername, addAPIKey)
		if err != nil {
			// A profile that never authenticated is not worth keeping.
			state.RemoveConnection(name)
			return err
		}

		active := internal.BootstrapContext(profile, cred)
		d := internal.NewDispatcher(internal.DefaultRetryPolicy())
		user, err := internal.WhoAmI(ctx, d, active)
		if err != nil {
			state.RemoveConnection(name)
			return fmt.Errorf("connection %q: verifying login: %w", name, err)
		}
		remote, err := internal.ListAccounts(ctx, d, active, user.UserID)
		if err != nil {
			state.RemoveConnection(name)
			return fmt.Errorf("connection %q: listing accounts: %w", name, err)
		}

		for i, acct := range remote {
			profile.Accounts = append(profile.Accounts, &internal.Account{
				ID:         acct.AccountID,
				Label:      acct.AccountName,
				AuthMethod: method,
				Username:   addUsername,
				Default:    i == 0,
			})
		}
		if def := profile.DefaultAccount(); def != nil {
			state.PutCredential(def.ID.String(), cred)
		}
		state.MarkDirty()

		if err := saveIfDirty(state); err != nil {
			return err
		}
		fmt.Printf("Connection %q added for %s with %d account(s).\n", name, user.UserName, len(remote))
		return nil
	},
}

var connectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered connections",
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}

		var rows [][]string
		for p := range state.List() {
			def := ""
			if p.Default {
				def = ui.DefaultStyle.Render("*")
			}
			rows = append(rows, []string{def, p.Name, p.Endpoint, fmt.Sprintf("%d", len(p.Accounts))})
		}
		if len(rows) == 0 {
			fmt.Println("No connections configured.")
			return nil
		}
		fmt.Print(ui.RenderTable([]string{"", "NAME", "ENDPOINT", "ACCOUNTS"}, rows))
		return nil
	},
}

var connectionRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a connection and its accounts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		if err := state.RemoveConnection(args[0]); err != nil {
			return err
		}
		if err := saveIfDirty(state); err != nil {
			return err
		}
		fmt.Printf("Connection %q removed.\n", args[0])
		return nil
	},
}

var connectionDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default connection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState()
		if err != nil {
			return err
		}
		if err := state.SetDefaultConnection(args[0]); err != nil {
			return err
		}
		if err := saveIfDirty(state); err != nil {
			return err
		}
		fmt.Printf("Default connection is now %q.\n", args[0])
		return nil
	},
}

func init() {
	connectionAddCmd.Flags().StringVar(&addEndpoint, "endpoint", "", "Server base URL, e.g. https://logs.example.com")
	connectionAddCmd.Flags().StringVar(&addUsername, "username", "", "Username for password login")
	connectionAddCmd.Flags().StringVar(&addAPIKey, "api-key", "", "Long-lived API key instead of a login")
	connectionAddCmd.Flags().BoolVar(&addDevice, "device", false, "Authenticate with the OAuth device flow")
	connectionAddCmd.Flags().BoolVar(&addInsecure, "insecure", false, "Skip TLS certificate verification")
	connectionAddCmd.Flags().BoolVar(&addSetDefault, "set-default", false, "Make this the default connection")
	connectionAddCmd.MarkFlagRequired("endpoint")

	connectionCmd.AddCommand(connectionAddCmd, connectionListCmd, connectionRemoveCmd, connectionDefaultCmd)
	rootCmd.AddCommand(connectionCmd)
}
