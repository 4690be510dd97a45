package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/ui"
)

var agentsCmd = &cobra.Command{
	Use:     "agents",
	Short:   "Manage agents",
	GroupID: "fleet",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, _ := cmd.Flags().GetString("board")

		agents, err := mcClient.ListAgents(context.Background(), boardID)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(agents)
			return nil
		}

		if len(agents) == 0 {
			fmt.Println("no agents")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBOARD\tSTATUS\tSESSION KEY")
		for _, a := range agents {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				a.ID, a.Name, derefStr(a.BoardID), renderStatus(a.Status), derefStr(a.SessionKey))
		}
		return w.Flush()
	},
}

var agentsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an agent and print its token (shown once)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, _ := cmd.Flags().GetString("board")

		resp, err := mcClient.CreateAgent(context.Background(), args[0], boardID)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}

		fmt.Printf("agent %s created (%s)\n", resp.Agent.Name, resp.Agent.ID)
		fmt.Printf("token: %s\n", ui.RenderAccent(resp.Token))
		fmt.Println(ui.RenderMuted("store this token now; it cannot be retrieved again"))
		return nil
	},
}

var agentsRotateTokenCmd = &cobra.Command{
	Use:   "rotate-token <agent-id>",
	Short: "Mint a fresh token for an agent (shown once)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := mcClient.RotateAgentToken(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]string{"agent_id": args[0], "token": tok})
			return nil
		}

		fmt.Printf("token: %s\n", ui.RenderAccent(tok))
		fmt.Println(ui.RenderMuted("store this token now; it cannot be retrieved again"))
		return nil
	},
}

var agentsDeleteCmd = &cobra.Command{
	Use:   "delete <agent-id>",
	Short: "Delete an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mcClient.DeleteAgent(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("agent %s deleted\n", args[0])
		return nil
	},
}

func init() {
	agentsListCmd.Flags().String("board", "", "filter by board id")
	agentsCreateCmd.Flags().String("board", "", "assign the agent to a board")

	agentsCmd.AddCommand(agentsListCmd)
	agentsCmd.AddCommand(agentsCreateCmd)
	agentsCmd.AddCommand(agentsRotateTokenCmd)
	agentsCmd.AddCommand(agentsDeleteCmd)
}
