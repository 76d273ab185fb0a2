// Package llvm lowers a typed MML module into textual LLVM IR.
//
// One Emitter is created per module compile and discarded after rendering;
// it is never shared across compiles. All accumulation is append-only until
// Render, with the single specified exception of discarding the exploratory
// compile of a non-literal global initializer.
package llvm

import (
	"fmt"
	"strings"

	"mmlc/internal/symbols"
)

// Emitter is the generation state threaded through all lowering operations.
type Emitter struct {
	moduleName string
	index      *symbols.Index
	abi        Strategy
	triple     string

	nextReg int

	header    string
	headerSet bool

	globals  []string // global variable declarations, in member order
	typeDefs []string // named aggregate definitions, deduplicated
	externs  []string // external function declarations, deduplicated
	funcs    []string // rendered function definitions

	cur []string // body of the function being emitted

	initFuncs []string // synthesized initializer function names

	strs     map[string]int // string constant pool: content -> id
	strOrder []string
	nextStr  int

	globalVars map[string]globalVar // bound top-level values, by source name

	typeDefSet map[string]struct{}
	externSet  map[string]struct{}

	warnings []string

	nextMeta int
	tbaa     tbaaState
	scopes   scopeState
}

// globalVar records an emitted top-level binding for later references.
type globalVar struct {
	symbol   string // mangled IR name, without the @ sigil
	repr     string // lowered type
	typeName string // source-level type name
}

// NewEmitter builds the per-module generation state.
func NewEmitter(moduleName, triple string, index *symbols.Index) *Emitter {
	return &Emitter{
		moduleName: moduleName,
		index:      index,
		abi:        StrategyForTriple(triple),
		triple:     triple,
		strs:       make(map[string]int, 8),
		globalVars: make(map[string]globalVar, 8),
		typeDefSet: make(map[string]struct{}, 8),
		externSet:  make(map[string]struct{}, 8),
		tbaa:       newTBAAState(),
		scopes:     newScopeState(),
	}
}

// setHeader stores the one-time module header. Setting it twice is a bug in
// the driver, reported as an error rather than silently overwritten.
func (e *Emitter) setHeader(header string) error {
	if e.headerSet {
		return fmt.Errorf("module header already set")
	}
	e.header = header
	e.headerSet = true
	return nil
}

// newReg allocates the next virtual register. Ids grow monotonically and are
// never reused within a module.
func (e *Emitter) newReg() int {
	id := e.nextReg
	e.nextReg++
	return id
}

// newMeta allocates the next metadata id, shared by the TBAA and alias-scope
// sections so every `!N` reference is unique module-wide.
func (e *Emitter) newMeta() int {
	id := e.nextMeta
	e.nextMeta++
	return id
}

func (e *Emitter) line(format string, args ...any) {
	e.cur = append(e.cur, fmt.Sprintf(format, args...))
}

// mark returns a snapshot of the current function body, and rewind discards
// everything emitted after the snapshot. Used only for the exploratory
// compile of global initializers.
func (e *Emitter) mark() int {
	return len(e.cur)
}

func (e *Emitter) rewind(mark int) {
	e.cur = e.cur[:mark]
}

// finishFunc renders the accumulated body into a complete definition.
func (e *Emitter) finishFunc(signature string) {
	var b strings.Builder
	b.WriteString(signature)
	b.WriteString(" {\n")
	for _, l := range e.cur {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
	e.funcs = append(e.funcs, b.String())
	e.cur = nil
}

// warn records a non-fatal warning surfaced after emission.
func (e *Emitter) warn(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns accumulated non-fatal warnings.
func (e *Emitter) Warnings() []string {
	return e.warnings
}

// mangle derives the externally visible symbol for a module-level name.
func (e *Emitter) mangle(name string) string {
	return strings.ToLower(e.moduleName) + "_" + name
}

// declareExtern emits an external function declaration once per name.
func (e *Emitter) declareExtern(name, decl string) {
	if _, done := e.externSet[name]; done {
		return
	}
	e.externSet[name] = struct{}{}
	e.externs = append(e.externs, decl)
}

// defineType emits a named aggregate definition once per name.
func (e *Emitter) defineType(name, def string) {
	if _, done := e.typeDefSet[name]; done {
		return
	}
	e.typeDefSet[name] = struct{}{}
	e.typeDefs = append(e.typeDefs, def)
}
