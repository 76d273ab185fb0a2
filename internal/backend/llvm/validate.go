package llvm

import (
	"errors"
	"fmt"
	"strings"

	"mmlc/internal/ast"
	"mmlc/internal/symbols"
)

// Mode selects what the compilation produces.
type Mode uint8

const (
	// ModeExecutable links a native executable.
	ModeExecutable Mode = iota
	// ModeLibrary produces a relocatable object.
	ModeLibrary
	// ModeDumpAST renders the typed tree and stops.
	ModeDumpAST
	// ModeDumpIR emits textual IR and stops.
	ModeDumpIR
)

// entryReturnReprs are the lowered return representations an entry point may
// have besides unit.
var entryReturnReprs = map[string]struct{}{
	"i8": {}, "i16": {}, "i32": {}, "i64": {},
}

// ValidateEntry enforces the executable entry-point contract: exactly one
// zero-parameter function binding named main whose return type resolves to
// unit or an allowed integer type. On success it returns the mangled symbol
// the program entry is bound to.
func ValidateEntry(mod *ast.Module, ix *symbols.Index) (string, error) {
	var entry *ast.Binding
	for i := range mod.Bindings {
		b := &mod.Bindings[i]
		if b.Origin == ast.OriginFunction && b.Name == "main" {
			entry = b
			break
		}
	}
	if entry == nil {
		return "", errors.New("No entry point 'main' found for binary compilation")
	}
	if len(entry.Params) > 0 {
		return "", errors.New("Entry point 'main' must have no parameters")
	}
	def, err := ix.ResolveType(entry.Result)
	if err != nil {
		return "", fmt.Errorf("Entry point 'main' return type: %w", err)
	}
	ok := false
	if def.Kind == symbols.DefNative && !def.Native.Pointer {
		if def.Native.Repr == "void" {
			ok = true
		} else if _, allowed := entryReturnReprs[def.Native.Repr]; allowed {
			ok = true
		}
	}
	if !ok {
		return "", fmt.Errorf("Entry point 'main' must return Unit or an integer type, got %s", entry.Result)
	}
	return strings.ToLower(mod.Name) + "_main", nil
}
