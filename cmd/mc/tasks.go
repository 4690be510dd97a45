package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/client"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Short:   "Manage tasks",
	GroupID: "work",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, _ := cmd.Flags().GetString("board")
		agentID, _ := cmd.Flags().GetString("agent")
		status, _ := cmd.Flags().GetString("status")

		tasks, err := mcClient.ListTasks(context.Background(), boardID, agentID, status)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(tasks)
			return nil
		}

		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBOARD\tSTATUS\tAGENT\tTITLE")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.BoardID, renderTaskStatus(string(t.Status)), derefStr(t.AgentID), t.Title)
		}
		return w.Flush()
	},
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, _ := cmd.Flags().GetString("board")
		agentID, _ := cmd.Flags().GetString("agent")
		description, _ := cmd.Flags().GetString("description")
		if boardID == "" {
			return fmt.Errorf("--board is required")
		}

		task, err := mcClient.CreateTask(context.Background(), &client.CreateTaskRequest{
			BoardID:     boardID,
			AgentID:     agentID,
			Title:       args[0],
			Description: description,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(task)
			return nil
		}
		fmt.Printf("task %s created\n", task.ID)
		return nil
	},
}

var tasksClaimCmd = &cobra.Command{
	Use:   "claim <task-id> <agent-id>",
	Short: "Claim a task for an agent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := mcClient.ClaimTask(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(task)
			return nil
		}
		fmt.Printf("task %s claimed by %s\n", task.ID, derefStr(task.AgentID))
		return nil
	},
}

var tasksCloseCmd = &cobra.Command{
	Use:   "close <task-id>",
	Short: "Close a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := mcClient.CloseTask(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(task)
			return nil
		}
		fmt.Printf("task %s closed\n", task.ID)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().String("board", "", "filter by board id")
	tasksListCmd.Flags().String("agent", "", "filter by agent id")
	tasksListCmd.Flags().String("status", "", "filter by status (todo, doing, review, done)")
	tasksCreateCmd.Flags().String("board", "", "board the task belongs to")
	tasksCreateCmd.Flags().String("agent", "", "assign the task to an agent")
	tasksCreateCmd.Flags().String("description", "", "task description")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksClaimCmd)
	tasksCmd.AddCommand(tasksCloseCmd)
}
