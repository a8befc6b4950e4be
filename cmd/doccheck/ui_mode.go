package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// uiMode is the value of the tri-state --ui and --color flags.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	return readMode("ui", value)
}

func readMode(flag, value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabled resolves auto against whether f is a terminal.
func (m uiMode) enabled(f *os.File) bool {
	switch m {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(f)
	}
}

// shouldUseTUI reports whether the progress view may take over stderr.
func shouldUseTUI(mode uiMode) bool {
	return mode.enabled(os.Stderr)
}

func useColor(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	mode, err := readMode("color", value)
	if err != nil {
		return false, err
	}
	return mode.enabled(os.Stdout), nil
}
