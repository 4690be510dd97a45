package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openclaw/missionctl/internal/ui"
)

var rosterCmd = &cobra.Command{
	Use:     "roster",
	Short:   "Show the live agent roster",
	GroupID: "fleet",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		staleSecs, _ := cmd.Flags().GetInt("stale-threshold-secs")

		roster, err := mcClient.GetRoster(context.Background(), staleSecs)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(roster)
			return nil
		}

		if len(roster.Agents) == 0 {
			fmt.Println("no live agents")
		} else {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "AGENT\tNAME\tBOARD\tTASK\tIDLE")
			for _, a := range roster.Agents {
				name := a.Name
				if a.Reaped {
					name = ui.RenderDanger(name + " (dead)")
				}
				task := a.TaskTitle
				if task == "" {
					task = ui.RenderMuted("-")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.AgentID, name, a.BoardID, task, formatIdle(a.IdleSecs))
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}

		if len(roster.UnclaimedTasks) > 0 {
			fmt.Println()
			fmt.Println(ui.RenderWarn("unclaimed in-flight tasks:"))
			for _, t := range roster.UnclaimedTasks {
				fmt.Printf("  %s  %s\n", t.ID, t.Title)
			}
		}
		return nil
	},
}

func init() {
	rosterCmd.Flags().Int("stale-threshold-secs", 0, "hide agents idle longer than this (0 = server default)")
}
