package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidbridge/droidbridge/commands"
	"github.com/droidbridge/droidbridge/utils"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Print the compact screen-state document",
	Long:  `Builds the same compact element table the screen_state tool returns, without starting a server.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadConfig(utils.ConfigPath())
		if err != nil {
			return err
		}

		deps, err := buildDeps(cmd, cfg)
		if err != nil {
			return err
		}

		screenshotPath, _ := cmd.Flags().GetString("screenshot")

		contents, err := commands.ScreenStateCommand(context.Background(), deps, commands.ScreenStateRequest{
			IncludeScreenshot: screenshotPath != "",
		})
		if err != nil {
			return err
		}

		fmt.Print(contents[0].Text)

		if screenshotPath != "" && len(contents) > 1 {
			imageBytes, err := base64.StdEncoding.DecodeString(contents[1].Data)
			if err != nil {
				return fmt.Errorf("failed to decode screenshot: %w", err)
			}
			if err := os.WriteFile(screenshotPath, imageBytes, 0o600); err != nil {
				return fmt.Errorf("failed to write screenshot: %w", err)
			}
			fmt.Fprintf(os.Stderr, "annotated screenshot written to %s\n", screenshotPath)
		}

		return nil
	},
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List installed application packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadConfig(utils.ConfigPath())
		if err != nil {
			return err
		}

		deps, err := buildDeps(cmd, cfg)
		if err != nil {
			return err
		}

		contents, err := commands.ListAppsCommand(context.Background(), deps)
		if err != nil {
			return err
		}

		fmt.Println(contents[0].Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(appsCmd)

	screenCmd.Flags().String("screenshot", "", "Also capture an annotated screenshot to this path (JPEG)")
}
