package buildpipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeTriple(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"arm64-apple-darwin23.4.0", "arm64-apple-darwin"},
		{"x86_64-unknown-linux-gnu", "x86_64-unknown-linux-gnu"},
		{"x86_64-pc-linux-gnu", "x86_64-pc-linux-gnu"},
		{"aarch64-unknown-linux-gnu2.39", "aarch64-unknown-linux-gnu"},
		{"wasm32", "wasm32"},
		{"x86_64-apple-macosx14.0", "x86_64-apple-macosx"},
	}
	for _, tc := range cases {
		if got := NormalizeTriple(tc.raw); got != tc.want {
			t.Fatalf("NormalizeTriple(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolveTripleExplicitWinsVerbatim(t *testing.T) {
	dir := t.TempDir()
	// An explicit triple is never normalized or cached.
	got, err := ResolveTriple(dir, "arm64-apple-darwin23.4.0")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != "arm64-apple-darwin23.4.0" {
		t.Fatalf("explicit triple must pass through verbatim, got %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, tripleCacheName)); err == nil {
		t.Fatalf("explicit triples must not be cached")
	}
}

func TestResolveTripleUsesCache(t *testing.T) {
	dir := t.TempDir()
	cached := "x86_64-unknown-linux-gnu"
	if err := os.WriteFile(filepath.Join(dir, tripleCacheName), []byte(cached+"\n"), 0o600); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	got, err := ResolveTriple(dir, "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got != cached {
		t.Fatalf("cached triple must be reused, got %q", got)
	}
}
