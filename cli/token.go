package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zalando/go-keyring"
)

const keyringService = "droidbridge"
const keyringUser = "server-token"

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the server auth token",
	Long:  `Stores the bearer token the server requires on every request in the OS keyring.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the server auth token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "" {
			return fmt.Errorf("token must not be empty")
		}
		if err := keyring.Set(keyringService, keyringUser, args[0]); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		fmt.Println("Token stored.")
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the stored auth token",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := keyring.Get(keyringService, keyringUser)
		if err != nil {
			return fmt.Errorf("no token stored; run 'droidbridge token set'")
		}
		fmt.Println(token)
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored auth token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := keyring.Delete(keyringService, keyringUser); err != nil {
			fmt.Println("no token stored")
			return nil
		}
		fmt.Println("Token removed.")
		return nil
	},
}

// resolveToken finds the auth token: flag, then environment, then keyring,
// then config file.
func resolveToken(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("DROIDBRIDGE_TOKEN"); env != "" {
		return env
	}
	if token, err := keyring.Get(keyringService, keyringUser); err == nil && token != "" {
		return token
	}
	return configValue
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd, tokenShowCmd, tokenClearCmd)
}
