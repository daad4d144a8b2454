package main

import (
	"fmt"

	"github.com/life-stream-dev/apm-demo/internal/config"
	"github.com/life-stream-dev/apm-demo/internal/server"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "apm-demo",
	Short:         "APM demo HTTP service",
	Long:          `apm-demo serves a handful of illustrative endpoints (health, quotes, a visit counter,
a calculator, random data and per-session attributes) for exercising APM tooling.`,
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "apm-demo version %s\n", server.Version)
	},
}

func init() {
	rootCmd.SetVersionTemplate("apm-demo version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath,
		"Path to the JSON configuration file")
	rootCmd.AddCommand(serveCmd, versionCmd)
}
