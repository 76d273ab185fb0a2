package buildpipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	runtimeembed "mmlc/runtime"
)

const (
	runtimeBitcodeName = "mml_runtime.bc"
	runtimeObjectName  = "mml_runtime.o"
)

// extractRuntimeSources writes the embedded runtime C sources into dir and
// returns their paths, sorted for stable compile order.
func extractRuntimeSources(dir string) ([]string, error) {
	fsys := runtimeembed.NativeRuntimeFS()
	var sources []string
	walkErr := fs.WalkDir(fsys, "native", func(entryPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(entryPath, ".c") {
			return nil
		}
		data, err := fs.ReadFile(fsys, entryPath)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, filepath.Base(entryPath))
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			return err
		}
		sources = append(sources, dst)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to extract embedded runtime sources: %w", walkErr)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("embedded runtime sources missing (build bug)")
	}
	sort.Strings(sources)
	return sources, nil
}

// ensureRuntimeBitcode compiles the runtime support unit to bitcode for the
// target triple, reusing a previously compiled copy in outDir when present.
// Multiple translation units are merged into a single bitcode file.
func (p *pipeline) ensureRuntimeBitcode(outDir, triple string) (string, error) {
	bcPath := filepath.Join(outDir, runtimeBitcodeName)
	if _, err := os.Stat(bcPath); err == nil {
		return bcPath, nil
	}
	sources, err := extractRuntimeSources(outDir)
	if err != nil {
		return "", err
	}
	units := make([]string, 0, len(sources))
	for _, src := range sources {
		unit := strings.TrimSuffix(src, ".c") + ".unit.bc"
		args := []string{"-x", "c", "-std=c11", "-emit-llvm", "-c", "-target", triple, src, "-o", unit}
		if err := p.runTool("clang", args...); err != nil {
			return "", err
		}
		units = append(units, unit)
	}
	if len(units) == 1 {
		if err := os.Rename(units[0], bcPath); err != nil {
			return "", fmt.Errorf("failed to place runtime bitcode: %w", err)
		}
		return bcPath, nil
	}
	args := append(append([]string{}, units...), "-o", bcPath)
	if err := p.runTool("llvm-link", args...); err != nil {
		return "", err
	}
	return bcPath, nil
}

// ensureRuntimeObject compiles the runtime support unit to a relocatable
// object for the target triple, reusing a cached copy in outDir when present.
// Library consumers link this object themselves, so it is produced even when
// the program itself never becomes an executable.
func (p *pipeline) ensureRuntimeObject(outDir, triple string) (string, error) {
	objPath := filepath.Join(outDir, runtimeObjectName)
	if _, err := os.Stat(objPath); err == nil {
		return objPath, nil
	}
	bcPath, err := p.ensureRuntimeBitcode(outDir, triple)
	if err != nil {
		return "", err
	}
	if err := p.runTool("clang", "-c", "-target", triple, bcPath, "-o", objPath); err != nil {
		return "", err
	}
	return objPath, nil
}
