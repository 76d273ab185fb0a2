package buildpipeline

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

const tripleCacheName = "local-target-triple"

// trailingVersion matches a version suffix on a triple's OS component,
// e.g. the "23.4.0" in arm64-apple-darwin23.4.0.
var trailingVersion = regexp.MustCompile(`[0-9][0-9.]*$`)

// ResolveTriple picks the build target: an explicit triple is used verbatim,
// then a previously cached local triple, then the host compiler is queried
// once and the normalized result cached to disk.
func ResolveTriple(dir, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cachePath := filepath.Join(dir, tripleCacheName)
	if data, err := os.ReadFile(cachePath); err == nil {
		if cached := strings.TrimSpace(string(data)); cached != "" {
			return cached, nil
		}
	}
	out, err := exec.Command("clang", "-dumpmachine").Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve local target triple via clang: %w", err)
	}
	triple := NormalizeTriple(strings.TrimSpace(string(out)))
	if triple == "" {
		return "", fmt.Errorf("clang reported an empty target triple")
	}
	if err := os.WriteFile(cachePath, []byte(triple+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to cache target triple: %w", err)
	}
	return triple, nil
}

// NormalizeTriple strips the version suffix from the triple's last
// component so cached triples stay stable across OS point releases.
func NormalizeTriple(raw string) string {
	i := strings.LastIndexByte(raw, '-')
	if i < 0 {
		return raw
	}
	last := trailingVersion.ReplaceAllString(raw[i+1:], "")
	if last == "" {
		// The whole component was a version; drop it entirely.
		return raw[:i]
	}
	return raw[:i+1] + last
}
