package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/droidbridge/droidbridge/cli"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- cli.Execute()
	}()

	select {
	case <-sigChan:
		os.Exit(0)
	case err := <-done:
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
