// Package runtimeembed provides the embedded native runtime sources that are
// compiled and linked into every MML build.
package runtimeembed

import (
	"embed"
	"io/fs"
)

//go:embed native/*.c
var nativeRuntimeFS embed.FS

// NativeRuntimeFS exposes the embedded runtime sources.
func NativeRuntimeFS() fs.FS {
	return nativeRuntimeFS
}
