package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeProbe(found map[string]string) func(context.Context, string) (string, error) {
	return func(_ context.Context, name string) (string, error) {
		if version, ok := found[name]; ok {
			return version, nil
		}
		return "", fmt.Errorf("%s not found", name)
	}
}

func TestVerifyWritesMarkerOnSuccess(t *testing.T) {
	dir := t.TempDir()
	checker := NewToolChecker(dir)
	probes := 0
	checker.Probe = func(ctx context.Context, name string) (string, error) {
		probes++
		return name + " version 18.0.0", nil
	}
	tools := []string{"llvm-as", "opt"}
	if err := checker.Verify(context.Background(), tools); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if probes != 2 {
		t.Fatalf("expected one probe per tool, got %d", probes)
	}
	payload, err := readMarker(dir)
	if err != nil {
		t.Fatalf("marker must exist after success: %v", err)
	}
	if payload.Tools["opt"] != "opt version 18.0.0" {
		t.Fatalf("marker must record captured versions: %+v", payload.Tools)
	}

	// A second verification trusts the marker and probes nothing.
	probes = 0
	if err := checker.Verify(context.Background(), tools); err != nil {
		t.Fatalf("re-verify failed: %v", err)
	}
	if probes != 0 {
		t.Fatalf("covered marker must be trusted, probed %d times", probes)
	}
}

func TestVerifyReprobesWhenMarkerOmitsTool(t *testing.T) {
	dir := t.TempDir()
	checker := NewToolChecker(dir)
	checker.Probe = fakeProbe(map[string]string{
		"llvm-as": "v1", "opt": "v1", "llvm-dis": "v1",
	})
	if err := checker.Verify(context.Background(), []string{"llvm-as", "opt"}); err != nil {
		t.Fatalf("initial verify failed: %v", err)
	}
	// The marker does not list llvm-dis, so it must be re-verified in full.
	probed := map[string]bool{}
	checker.Probe = func(_ context.Context, name string) (string, error) {
		probed[name] = true
		return "v1", nil
	}
	if err := checker.Verify(context.Background(), []string{"llvm-as", "opt", "llvm-dis"}); err != nil {
		t.Fatalf("extended verify failed: %v", err)
	}
	if len(probed) != 3 {
		t.Fatalf("marker missing a tool must force a full re-probe, probed %v", probed)
	}
}

func TestVerifyFailsWithoutWritingMarker(t *testing.T) {
	dir := t.TempDir()
	checker := NewToolChecker(dir)
	checker.Probe = fakeProbe(map[string]string{"llvm-as": "v1"})
	err := checker.Verify(context.Background(), []string{"llvm-as", "opt", "llc"})
	if err == nil {
		t.Fatalf("missing tools must fail verification")
	}
	if !strings.Contains(err.Error(), "llc") || !strings.Contains(err.Error(), "opt") {
		t.Fatalf("error must name every missing tool: %v", err)
	}
	if _, statErr := os.Stat(markerPath(dir)); statErr == nil {
		t.Fatalf("failed verification must not write a marker")
	}
}

func TestInvalidateMarkerArchivesWithTimestamp(t *testing.T) {
	dir := t.TempDir()
	if err := writeMarker(dir, map[string]string{"opt": "v1"}); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	InvalidateMarker(dir)
	if _, err := os.Stat(markerPath(dir)); err == nil {
		t.Fatalf("marker must be moved away")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	archived := 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), markerName+"-") {
			archived++
		}
	}
	if archived != 1 {
		t.Fatalf("expected one archived marker, found %d", archived)
	}
	// Invalidating again with no marker present is a no-op.
	InvalidateMarker(dir)
}

func TestReadMarkerRejectsCorruptPayload(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, markerName), []byte("not msgpack at all"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readMarker(dir); err == nil {
		t.Fatalf("corrupt marker must not decode")
	}
}
