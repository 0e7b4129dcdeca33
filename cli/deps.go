package cli

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droidbridge/droidbridge/commands"
	"github.com/droidbridge/droidbridge/devices"
	"github.com/droidbridge/droidbridge/devices/agent"
	"github.com/droidbridge/droidbridge/utils"
)

// buildDeps wires the collaborator set for the selected device. The
// on-device agent, when reachable, supplies introspection, metadata and
// capture (it can enumerate windows); adb always supplies gestures and app
// control and is the fallback for everything else.
func buildDeps(cmd *cobra.Command, cfg utils.Config) (commands.Deps, error) {
	serial, _ := cmd.Flags().GetString("device")
	if serial == "" {
		serial = cfg.DeviceSerial
	}
	if serial == "" {
		serials, err := devices.ListADBSerials(context.Background())
		if err != nil {
			return commands.Deps{}, err
		}
		switch len(serials) {
		case 0:
			return commands.Deps{}, fmt.Errorf("no online devices found")
		case 1:
			serial = serials[0]
		default:
			return commands.Deps{}, fmt.Errorf("multiple devices found (%d), pass --device with one of: [%s]",
				len(serials), strings.Join(serials, ", "))
		}
	}

	adb := devices.NewADBDevice(serial)

	deps := commands.Deps{
		Introspector:      adb,
		Capture:           adb,
		Meta:              adb,
		Gestures:          adb,
		Apps:              adb,
		ScreenshotQuality: cfg.ScreenshotQuality,
		ScreenshotMaxDim:  cfg.ScreenshotMaxDim,
	}

	agentPort, _ := cmd.Flags().GetInt("agent-port")
	if agentPort == 0 {
		agentPort = cfg.AgentPort
	}
	if agentPort > 0 {
		client := agent.NewClient("localhost", agentPort)
		if err := client.HealthCheck(); err != nil {
			log.Debugf("agent on port %d not reachable, using adb only: %v", agentPort, err)
		} else {
			log.Infof("using on-device agent on port %d", agentPort)
			deps.Introspector = client
			deps.Capture = client
			deps.Meta = client
		}
	}

	return deps, nil
}
