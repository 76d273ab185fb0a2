package llvm

import (
	"fmt"
	"strings"

	"mmlc/internal/ast"
	"mmlc/internal/symbols"
)

// Options configures one module emission.
type Options struct {
	Triple string
	Mode   Mode
}

// Result is the rendered module plus everything the pipeline needs next.
type Result struct {
	IR          string
	EntrySymbol string
	Warnings    []string
}

// EmitModule validates (in executable mode), lowers every top-level binding
// and renders the complete textual IR. Code-generation errors abort
// immediately; no partial IR is returned.
func EmitModule(mod *ast.Module, ix *symbols.Index, opts Options) (*Result, error) {
	if mod == nil {
		return nil, fmt.Errorf("nil module")
	}
	entrySymbol := ""
	if opts.Mode == ModeExecutable {
		sym, err := ValidateEntry(mod, ix)
		if err != nil {
			return nil, err
		}
		entrySymbol = sym
	}

	e := NewEmitter(mod.Name, opts.Triple, ix)
	header := fmt.Sprintf("; module %s\n; target %s\ntarget triple = \"%s\"\n", mod.Name, opts.Triple, opts.Triple)
	if err := e.setHeader(header); err != nil {
		return nil, err
	}

	for i := range mod.Bindings {
		b := &mod.Bindings[i]
		switch b.Origin {
		case ast.OriginFunction:
			if err := e.emitFunction(b); err != nil {
				return nil, err
			}
		case ast.OriginLet:
			if err := e.emitGlobal(b); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("binding %q has unsupported origin %d", b.Name, b.Origin)
		}
	}

	if opts.Mode == ModeExecutable {
		entry, _ := mod.Binding("main")
		if err := e.emitMainWrapper(entry); err != nil {
			return nil, err
		}
	}

	return &Result{
		IR:          e.render(),
		EntrySymbol: entrySymbol,
		Warnings:    e.warnings,
	}, nil
}

// render concatenates the accumulated sections in their fixed order: header,
// globals, type and extern declarations, functions, the constructor table,
// then metadata (only if non-empty).
func (e *Emitter) render() string {
	var b strings.Builder
	b.WriteString(e.header)
	b.WriteByte('\n')

	writeSection := func(lines []string) {
		if len(lines) == 0 {
			return
		}
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	writeSection(e.globals)
	writeSection(e.renderStringConsts())
	writeSection(e.typeDefs)
	writeSection(e.externs)

	for _, fn := range e.funcs {
		b.WriteString(fn)
		b.WriteByte('\n')
	}

	if ctors := e.renderCtorTable(); ctors != "" {
		b.WriteString(ctors)
		b.WriteString("\n\n")
	}

	writeSection(e.tbaa.lines)
	writeSection(e.scopes.lines)

	return strings.TrimRight(b.String(), "\n") + "\n"
}
