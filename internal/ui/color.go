// Package ui provides terminal output helpers for modsync.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// Color function types for styled output.
var (
	// Success is used for completed installs and up-to-date files (green).
	Success = color.New(color.FgGreen).SprintFunc()
	// Error is used for errors and failures (red).
	Error = color.New(color.FgRed).SprintFunc()
	// Warning is used for files that need an update (yellow).
	Warning = color.New(color.FgYellow).SprintFunc()
	// Info is used for informational labels (cyan).
	Info = color.New(color.FgCyan).SprintFunc()
	// Bold is used for emphasis.
	Bold = color.New(color.Bold).SprintFunc()
	// Dim is used for secondary information such as reasons and paths.
	Dim = color.New(color.Faint).SprintFunc()
	// Header is used for section labels (bold cyan).
	Header = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// Status symbols.
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolSkipped = "-"
	SymbolPending = "○"
)

// Color modes accepted by SetColorMode.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

func status(paint func(a ...interface{}) string, symbol, msg string) string {
	if msg == "" {
		return paint(symbol)
	}
	return paint(symbol) + " " + msg
}

// StatusSuccess returns a green checkmark with optional message.
func StatusSuccess(msg string) string { return status(Success, SymbolSuccess, msg) }

// StatusError returns a red X with optional message.
func StatusError(msg string) string { return status(Error, SymbolError, msg) }

// StatusWarning returns a yellow warning with optional message.
func StatusWarning(msg string) string { return status(Warning, SymbolWarning, msg) }

// StatusSkipped returns a dimmed skip symbol with optional message.
func StatusSkipped(msg string) string { return status(Dim, SymbolSkipped, msg) }

// StatusPending returns a dimmed circle with optional message.
func StatusPending(msg string) string { return status(Dim, SymbolPending, msg) }

// DisableColors disables all color output.
func DisableColors() {
	color.NoColor = true
}

// EnableColors enables color output.
func EnableColors() {
	color.NoColor = false
}

// IsColorEnabled returns whether colors are currently enabled.
func IsColorEnabled() bool {
	return !color.NoColor
}

// SetColorMode applies a configured color mode. Auto leaves the terminal
// detection done by fatih/color untouched.
func SetColorMode(mode string) error {
	switch mode {
	case ColorAuto, "":
	case ColorAlways:
		EnableColors()
	case ColorNever:
		DisableColors()
	default:
		return fmt.Errorf("unknown color mode %q (valid: auto, always, never)", mode)
	}
	return nil
}
