package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/droidbridge/droidbridge/devices"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		serials, err := devices.ListADBSerials(context.Background())
		if err != nil {
			return err
		}

		type deviceEntry struct {
			Serial string `json:"serial"`
			State  string `json:"state"`
		}

		entries := make([]deviceEntry, 0, len(serials))
		for _, s := range serials {
			entries = append(entries, deviceEntry{Serial: s, State: "online"})
		}

		printJson(entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
