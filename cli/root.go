// Package cli implements the droidbridge command tree.
package cli

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droidbridge/droidbridge/utils"
)

const version = "dev"

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "droidbridge",
	Short: "Remote-control bridge for Android handhelds",
	Long:  `droidbridge lets an AI agent inspect the screen of an Android device and drive it through a tool-call protocol.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func initConfig() {
	utils.SetupLogging(verbose)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("device", "", "device serial (default: the only connected device)")
	rootCmd.PersistentFlags().Int("agent-port", 0, "forwarded port of the on-device agent (0 disables the agent)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}
