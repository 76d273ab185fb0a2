package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build artifacts",
	Long:  "Remove the out and target directories used for build artifacts and caches.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func runClean(_ *cobra.Command, args []string) error {
	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}
	baseDir, err := resolveCleanBase(baseDir)
	if err != nil {
		return err
	}
	removed := 0
	for _, name := range []string{"out", "target"} {
		dir := filepath.Join(baseDir, name)
		info, err := os.Stat(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat %q: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%q is not a directory", dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", dir, err)
		}
		fmt.Fprintf(os.Stdout, "removed %s\n", formatPathForOutput(baseDir, dir))
		removed++
	}
	if removed == 0 {
		fmt.Fprintf(os.Stdout, "nothing to clean\n")
	}
	return nil
}

func resolveCleanBase(base string) (string, error) {
	info, err := os.Stat(base)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", base, err)
	}
	if !info.IsDir() {
		base = filepath.Dir(base)
	}
	manifest, ok, err := loadProjectManifest(base)
	if err != nil {
		return "", err
	}
	if ok {
		return manifest.Root, nil
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return base, nil
	}
	return abs, nil
}
