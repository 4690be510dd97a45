package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/client"
	"github.com/openclaw/missionctl/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync <gateway-id>",
	Short:   "Synchronize agent workspace templates on a gateway",
	GroupID: "fleet",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		includeMain, _ := cmd.Flags().GetBool("main")
		resetSessions, _ := cmd.Flags().GetBool("reset-sessions")
		rotateTokens, _ := cmd.Flags().GetBool("rotate-tokens")
		forceBootstrap, _ := cmd.Flags().GetBool("force-bootstrap")
		boardID, _ := cmd.Flags().GetString("board")

		res, err := mcClient.SyncGateway(context.Background(), args[0], client.SyncGatewayRequest{
			IncludeMain:    includeMain,
			ResetSessions:  resetSessions,
			RotateTokens:   rotateTokens,
			ForceBootstrap: forceBootstrap,
			BoardID:        boardID,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(res)
			return nil
		}

		fmt.Printf("gateway %s: %s updated, %s skipped\n",
			res.GatewayID,
			ui.RenderOK(fmt.Sprintf("%d", res.AgentsUpdated)),
			ui.RenderMuted(fmt.Sprintf("%d", res.AgentsSkipped)))
		if res.IncludeMain {
			if res.MainUpdated {
				fmt.Printf("main agent: %s\n", ui.RenderOK("updated"))
			} else {
				fmt.Printf("main agent: %s\n", ui.RenderWarn("not updated"))
			}
		}
		for _, e := range res.Errors {
			prefix := ""
			if e.AgentName != "" {
				prefix = e.AgentName + ": "
			}
			fmt.Printf("  %s %s%s\n", ui.RenderDanger("!"), prefix, e.Message)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("main", false, "also sync the gateway's main agent")
	syncCmd.Flags().Bool("reset-sessions", false, "reset agent sessions after provisioning")
	syncCmd.Flags().Bool("rotate-tokens", false, "re-key agents whose token cannot be read or verified")
	syncCmd.Flags().Bool("force-bootstrap", false, "force agents to re-run their bootstrap sequence")
	syncCmd.Flags().String("board", "", "narrow the sync to a single board")
}
