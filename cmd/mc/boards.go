package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/model"
	"github.com/openclaw/missionctl/internal/ui"
)

var boardsCmd = &cobra.Command{
	Use:     "boards",
	Short:   "Manage boards",
	GroupID: "work",
}

var boardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gatewayID, _ := cmd.Flags().GetString("gateway")

		boards, err := mcClient.ListBoards(context.Background(), gatewayID)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(boards)
			return nil
		}

		if len(boards) == 0 {
			fmt.Println("no boards")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tGATEWAY\tSTATE")
		for _, b := range boards {
			state := ui.RenderOK("active")
			if b.Paused {
				state = ui.RenderWarn("paused")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.GatewayID, state)
		}
		return w.Flush()
	},
}

var boardsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a board on a gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gatewayID, _ := cmd.Flags().GetString("gateway")
		if gatewayID == "" {
			return fmt.Errorf("--gateway is required")
		}

		board, err := mcClient.CreateBoard(context.Background(), gatewayID, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(board)
			return nil
		}
		fmt.Printf("board %s created (%s)\n", board.Name, board.ID)
		return nil
	},
}

var boardsPauseCmd = &cobra.Command{
	Use:   "pause <board-id>",
	Short: "Pause a board (its agents are skipped during sync)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := mcClient.PostBoardMessage(context.Background(), args[0], model.PauseCommand, true); err != nil {
			return err
		}
		fmt.Printf("board %s paused\n", args[0])
		return nil
	},
}

var boardsResumeCmd = &cobra.Command{
	Use:   "resume <board-id>",
	Short: "Resume a paused board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := mcClient.PostBoardMessage(context.Background(), args[0], model.ResumeCommand, true); err != nil {
			return err
		}
		fmt.Printf("board %s resumed\n", args[0])
		return nil
	},
}

var boardsSayCmd = &cobra.Command{
	Use:   "say <board-id> <message>",
	Short: "Post a chat message to a board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := mcClient.PostBoardMessage(context.Background(), args[0], args[1], true)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(msg)
			return nil
		}
		fmt.Printf("message %s posted\n", msg.ID)
		return nil
	},
}

func init() {
	boardsListCmd.Flags().String("gateway", "", "filter by gateway id")
	boardsCreateCmd.Flags().String("gateway", "", "gateway the board belongs to")

	boardsCmd.AddCommand(boardsListCmd)
	boardsCmd.AddCommand(boardsCreateCmd)
	boardsCmd.AddCommand(boardsPauseCmd)
	boardsCmd.AddCommand(boardsResumeCmd)
	boardsCmd.AddCommand(boardsSayCmd)
}
