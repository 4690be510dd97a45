package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/openclaw/missionctl/internal/ui"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// renderStatus colorizes an agent presence status.
func renderStatus(status string) string {
	switch status {
	case "online":
		return ui.RenderOK(status)
	case "idle":
		return ui.RenderWarn(status)
	case "offline":
		return ui.RenderDanger(status)
	default:
		return status
	}
}

// renderTaskStatus colorizes a task status.
func renderTaskStatus(status string) string {
	switch status {
	case "todo":
		return ui.RenderMuted(status)
	case "doing":
		return ui.RenderAccent(status)
	case "review":
		return ui.RenderWarn(status)
	case "done":
		return ui.RenderOK(status)
	default:
		return status
	}
}

// formatIdle renders an idle duration compactly ("3s", "2m", "1h05m").
func formatIdle(secs float64) string {
	d := time.Duration(secs * float64(time.Second))
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
