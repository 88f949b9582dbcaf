package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	schemaPath string
)

var rootCmd = &cobra.Command{
	Use:   "scarecrow",
	Short: "Scarecrow drone operations toolkit",
	Long:  "scarecrow provides the operator dashboard and a drone backend simulator for pigeon-chasing missions.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/scarecrow.yaml", "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schemas/scarecrow.cue", "Path to CUE schema file")
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(serveCmd)
}
