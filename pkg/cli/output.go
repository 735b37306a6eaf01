package cli

import (
	"fmt"
	"io"
	"os"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// printSetupStep prints a setup step with spinner-style prefix
func printSetupStep(w io.Writer, msg string) {
	fmt.Fprintf(w, "  %s⏳%s %s\n", color(colorCyan), color(colorReset), msg)
}

// printCheck prints a pass/fail line for a boolean check.
func printCheck(w io.Writer, ok bool, msg string) {
	if ok {
		fmt.Fprintf(w, "  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
		return
	}
	fmt.Fprintf(w, "  %s✗%s %s\n", color(colorRed), color(colorReset), msg)
}
