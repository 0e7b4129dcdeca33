package utils

import (
	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the process-wide logger. Verbose switches to debug
// level; timestamps carry millisecond precision so request latencies are
// readable from the log alone.
func SetupLogging(verbose bool) {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
