package utils

import (
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Config holds the persisted settings read from the ini file. Flags and
// environment variables override anything in here.
type Config struct {
	Listen            string
	Token             string
	ScreenshotQuality int
	ScreenshotMaxDim  int
	DeviceSerial      string
	AgentPort         int
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Listen:            "localhost:12000",
		ScreenshotQuality: 80,
		ScreenshotMaxDim:  1080,
		AgentPort:         8380,
	}
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "droidbridge", "config.ini")
}

// LoadConfig reads the ini file at path, falling back to defaults for any
// missing key. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	srv := file.Section("server")
	cfg.Listen = srv.Key("listen").MustString(cfg.Listen)
	cfg.Token = srv.Key("token").MustString(cfg.Token)
	cfg.ScreenshotQuality = srv.Key("screenshot_quality").MustInt(cfg.ScreenshotQuality)
	cfg.ScreenshotMaxDim = srv.Key("screenshot_max_dimension").MustInt(cfg.ScreenshotMaxDim)

	dev := file.Section("device")
	cfg.DeviceSerial = dev.Key("serial").MustString(cfg.DeviceSerial)
	cfg.AgentPort = dev.Key("agent_port").MustInt(cfg.AgentPort)

	return cfg, nil
}
