package main

import (
	"os"

	"github.com/life-stream-dev/apm-demo/internal/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.FatalF("Command execution failed: %v", err)
		os.Exit(1)
	}
}
