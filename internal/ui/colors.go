// Package ui holds terminal styling for CLI output.
package ui

import "os"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Enabled turns styling off when NO_COLOR is set (https://no-color.org)
var Enabled = os.Getenv("NO_COLOR") == ""

// Paint wraps s in color when styling is enabled
func Paint(color, s string) string {
	if !Enabled {
		return s
	}
	return color + s + ColorReset
}

func Bold(s string) string {
	return Paint(ColorBold+ColorWhite, s)
}

func Success(s string) string {
	return Paint(ColorGreen, s)
}

func Warn(s string) string {
	return Paint(ColorYellow, s)
}

func Error(s string) string {
	return Paint(ColorRed, s)
}
