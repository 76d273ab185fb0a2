// Package main implements the mmlc CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mmlc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "mmlc",
	Short: "MML native compiler",
	Long:  `mmlc lowers typed MML programs to LLVM IR and drives the LLVM toolchain to produce native executables and objects`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return applyColorMode(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	rootCmd.Version = version.Version

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// applyColorMode maps the persistent --color flag onto the global color
// switch. "auto" leaves the library's own terminal detection in charge.
func applyColorMode(cmd *cobra.Command) error {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		// color.NoColor already reflects terminal detection.
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("--color must be auto, on or off (got %q)", value)
	}
	return nil
}

// resolveUIMode decides whether the interactive progress view should run.
// "auto" enables it only when stdout is a terminal.
func resolveUIMode(value string) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("--ui must be auto, on or off (got %q)", value)
	}
}

// beQuiet reports whether non-essential output is suppressed.
func beQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}
