// Package output provides colored terminal output helpers.
package output

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Watch event colors
	Added   = color.New(color.FgGreen)
	Removed = color.New(color.FgRed)
	Updated = color.New(color.FgYellow)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header = color.New(color.FgWhite, color.Bold)
	Crate  = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// EventColor returns the color for a watch event kind
func EventColor(event string) *color.Color {
	switch event {
	case "added":
		return Added
	case "removed":
		return Removed
	case "updated":
		return Updated
	default:
		return Info
	}
}

// FormatEvent renders a watch event kind in its color
func FormatEvent(event string) string {
	return EventColor(event).Sprint(event)
}

// Successf prints a success message to stdout
func Successf(format string, args ...interface{}) {
	Success.Printf(format+"\n", args...)
}

// Errorf prints an error message to stderr
func Errorf(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, format+"\n", args...)
}

// Infof prints an informational message to stdout
func Infof(format string, args ...interface{}) {
	Info.Printf(format+"\n", args...)
}

// Headerf prints a bold header line to stdout
func Headerf(format string, args ...interface{}) {
	Header.Printf(format+"\n", args...)
}

// Plainf prints an uncolored line to stdout
func Plainf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
