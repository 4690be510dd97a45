package ui

import "fmt"

// ANSI256 color codes for mc output.
const (
	colorAccent  = 74  // blue
	colorOK      = 114 // green
	colorWarn    = 214 // orange
	colorDanger  = 203 // red
	colorMuted   = 245 // medium gray
	colorCommand = 250 // light gray
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderOK returns s in green, for healthy/online states.
func RenderOK(s string) string {
	return render(colorOK, s)
}

// RenderWarn returns s in orange, for idle/degraded states.
func RenderWarn(s string) string {
	return render(colorWarn, s)
}

// RenderDanger returns s in red, for offline/error states.
func RenderDanger(s string) string {
	return render(colorDanger, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	return render(colorCommand, s)
}

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
