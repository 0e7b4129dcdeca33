package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droidbridge/droidbridge/daemon"
	"github.com/droidbridge/droidbridge/server"
	"github.com/droidbridge/droidbridge/utils"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Server management commands",
	Long:  `Commands for managing the droidbridge server.`,
}

var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the droidbridge server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadConfig(utils.ConfigPath())
		if err != nil {
			return err
		}

		listenAddr, _ := cmd.Flags().GetString("listen")
		if listenAddr == "" {
			listenAddr = cfg.Listen
		}

		tokenFlag, _ := cmd.Flags().GetString("token")
		token := resolveToken(tokenFlag, cfg.Token)

		enableCORS, _ := cmd.Flags().GetBool("cors")
		isDaemon, _ := cmd.Flags().GetBool("daemon")

		if isDaemon && !daemon.IsChild() {
			_, err := daemon.Daemonize()
			if err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}

			fmt.Printf("Server daemon spawned, attempting to listen on %s\n", listenAddr)
			return nil
		}

		deps, err := buildDeps(cmd, cfg)
		if err != nil {
			return err
		}

		srv, err := server.NewServer(server.BuildRegistry(deps), token, enableCORS)
		if err != nil {
			return err
		}

		return srv.ListenAndServe(listenAddr)
	},
}

var serverKillCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemonized droidbridge server",
	Long:  `Connects to the server and sends a shutdown command via JSON-RPC.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := utils.LoadConfig(utils.ConfigPath())
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = cfg.Listen
		}

		tokenFlag, _ := cmd.Flags().GetString("token")
		token := resolveToken(tokenFlag, cfg.Token)

		if err := daemon.KillServer(addr, token); err != nil {
			return err
		}

		fmt.Println("Server shutdown command sent successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.AddCommand(serverStartCmd)
	serverCmd.AddCommand(serverKillCmd)

	serverStartCmd.Flags().String("listen", "", "Address to listen on (e.g., 'localhost:12000' or '0.0.0.0:13000')")
	serverStartCmd.Flags().Bool("cors", false, "Enable CORS support")
	serverStartCmd.Flags().BoolP("daemon", "d", false, "Run server in daemon mode (background)")
	serverStartCmd.Flags().String("token", "", "Bearer token clients must present (overrides env/keyring/config)")

	serverKillCmd.Flags().String("listen", "", "Address of server to kill")
	serverKillCmd.Flags().String("token", "", "Bearer token of the running server")
}
