package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"scarecrow-ops/internal/api"
	"scarecrow-ops/internal/config"
	"scarecrow-ops/internal/dashboard"
)

var dashboardBaseURL string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the operator dashboard",
	Long:  "dashboard opens the terminal UI for flight control and flight history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, schemaPath)
		if err != nil {
			return err
		}

		baseURL := cfg.Dashboard.BaseURL
		if dashboardBaseURL != "" {
			baseURL = dashboardBaseURL
		}

		client := api.New(baseURL, cfg.Dashboard.Timeout())
		model := dashboard.New(client, dashboard.Options{
			ConnInterval:  cfg.Dashboard.ConnInterval(),
			DroneInterval: cfg.Dashboard.DroneInterval(),
		})

		_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardBaseURL, "api-url", "", "Backend base URL (overrides config and SCARECROW_API_URL)")
}
