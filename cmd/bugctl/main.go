// Package main is the entry point of the bugboard CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiAddr    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:           "bugctl",
	Short:         "Track bugs from the terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Run executes the CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func init() {
	defaultAPI := os.Getenv("API_BASE_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:5000/api"
	}
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", defaultAPI, "Address of the bug-tracker API")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.bugboard/config.json)")
}

func main() {
	os.Exit(Run())
}
