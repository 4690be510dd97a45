package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/model"
)

var gatewaysCmd = &cobra.Command{
	Use:     "gateways",
	Short:   "Manage gateways",
	GroupID: "fleet",
}

var gatewaysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List gateways",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gateways, err := mcClient.ListGateways(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(gateways)
			return nil
		}

		if len(gateways) == 0 {
			fmt.Println("no gateways")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tURL\tMAIN SESSION")
		for _, g := range gateways {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ID, g.Name, g.URL, g.MainSessionKey)
		}
		return w.Flush()
	},
}

var gatewaysAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Register a gateway",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		mainSessionKey, _ := cmd.Flags().GetString("main-session-key")

		gw, err := mcClient.CreateGateway(context.Background(), &model.Gateway{
			Name:           args[0],
			URL:            args[1],
			Token:          token,
			MainSessionKey: mainSessionKey,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(gw)
			return nil
		}
		fmt.Printf("gateway %s registered (%s)\n", gw.Name, gw.ID)
		return nil
	},
}

func init() {
	gatewaysAddCmd.Flags().String("token", "", "gateway auth token")
	gatewaysAddCmd.Flags().String("main-session-key", "", "session key of the gateway's main agent")

	gatewaysCmd.AddCommand(gatewaysListCmd)
	gatewaysCmd.AddCommand(gatewaysAddCmd)
}
