package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/client"
	"github.com/openclaw/missionctl/internal/ui"
)

var (
	apiURL     string
	apiToken   string
	jsonOutput bool

	mcClient *client.Client
)

func defaultAPIURL() string {
	if s := os.Getenv("MC_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultAPIToken() string {
	if s := os.Getenv("MC_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "mc <command>",
	Short: "Mission control CLI",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		mcClient = client.New(apiURL, apiToken)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", defaultAPIURL(), "mission control server URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", defaultAPIToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "work", Title: "Work:"},
		&cobra.Group{ID: "fleet", Title: "Fleet:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	cobra.EnableCommandSorting = false

	// Work
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(boardsCmd)

	// Fleet
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(gatewaysCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(rosterCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
