package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

const (
	markerName = "llvm-check-ok"

	// Current schema version - increment when the marker format changes.
	markerSchemaVersion uint16 = 1
)

// markerPayload is the on-disk record of a successful tool verification.
type markerPayload struct {
	Schema uint16
	Tools  map[string]string // tool name -> captured version output
}

// ToolInventory is the result of probing the required external tools.
type ToolInventory struct {
	Found   map[string]string
	Missing []string
}

// ToolChecker verifies external tool availability, caching the result in a
// marker file inside the build directory. Probe is replaceable for tests;
// the default resolves the tool on PATH and captures its version banner.
type ToolChecker struct {
	Dir   string
	Probe func(ctx context.Context, name string) (string, error)
}

// NewToolChecker returns a checker for the given build directory.
func NewToolChecker(dir string) *ToolChecker {
	return &ToolChecker{Dir: dir, Probe: probeTool}
}

// Verify trusts the cached marker when it lists every required tool;
// otherwise it re-probes the full set and rewrites the marker. A marker that
// omits a currently required tool is treated the same as no marker.
func (c *ToolChecker) Verify(ctx context.Context, tools []string) error {
	if payload, err := readMarker(c.Dir); err == nil && markerCovers(payload, tools) {
		return nil
	}
	inv := c.probeAll(ctx, tools)
	if len(inv.Missing) > 0 {
		sort.Strings(inv.Missing)
		return fmt.Errorf("required external tool(s) not found: %s (install LLVM and clang)",
			strings.Join(inv.Missing, ", "))
	}
	return writeMarker(c.Dir, inv.Found)
}

// probeAll checks every tool concurrently. Probing is read-only, so the
// pipeline's strictly sequential stage contract is not affected.
func (c *ToolChecker) probeAll(ctx context.Context, tools []string) ToolInventory {
	probe := c.Probe
	if probe == nil {
		probe = probeTool
	}
	var mu sync.Mutex
	inv := ToolInventory{Found: make(map[string]string, len(tools))}
	g, gctx := errgroup.WithContext(ctx)
	for _, tool := range tools {
		tool := tool
		g.Go(func() error {
			version, err := probe(gctx, tool)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				inv.Missing = append(inv.Missing, tool)
			} else {
				inv.Found[tool] = version
			}
			return nil
		})
	}
	// Probes never return errors through the group; they record misses.
	_ = g.Wait()
	return inv
}

func probeTool(ctx context.Context, name string) (string, error) {
	if _, err := exec.LookPath(name); err != nil {
		return "", err
	}
	out, err := exec.CommandContext(ctx, name, "--version").Output()
	if err != nil {
		return "", err
	}
	version := strings.TrimSpace(string(out))
	if i := strings.IndexByte(version, '\n'); i >= 0 {
		version = version[:i]
	}
	return version, nil
}

func markerPath(dir string) string {
	return filepath.Join(dir, markerName)
}

func readMarker(dir string) (*markerPayload, error) {
	data, err := os.ReadFile(markerPath(dir))
	if err != nil {
		return nil, err
	}
	var payload markerPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("corrupt tool marker: %w", err)
	}
	if payload.Schema != markerSchemaVersion {
		return nil, fmt.Errorf("tool marker schema %d (want %d)", payload.Schema, markerSchemaVersion)
	}
	return &payload, nil
}

func markerCovers(payload *markerPayload, tools []string) bool {
	for _, tool := range tools {
		if _, ok := payload.Tools[tool]; !ok {
			return false
		}
	}
	return true
}

func writeMarker(dir string, tools map[string]string) error {
	data, err := msgpack.Marshal(&markerPayload{Schema: markerSchemaVersion, Tools: tools})
	if err != nil {
		return fmt.Errorf("failed to encode tool marker: %w", err)
	}
	if err := os.WriteFile(markerPath(dir), data, 0o600); err != nil {
		return fmt.Errorf("failed to write tool marker: %w", err)
	}
	return nil
}

// InvalidateMarker archives the marker with a timestamp instead of deleting
// it, so a later build re-verifies rather than trusting a stale cache.
// Archival failures are logged and never mask the originating error.
func InvalidateMarker(dir string) {
	src := markerPath(dir)
	if _, err := os.Stat(src); err != nil {
		return
	}
	dst := fmt.Sprintf("%s-%d", src, time.Now().Unix())
	if err := os.Rename(src, dst); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to archive tool marker: %v\n", err)
	}
}
