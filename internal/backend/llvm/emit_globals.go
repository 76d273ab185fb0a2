package llvm

import (
	"fmt"
	"strings"

	"mmlc/internal/ast"
)

// emitGlobal lowers one top-level value binding. An initializer that reduces
// to a literal becomes a direct global declaration; anything else gets a
// zero-initialized global plus a private initializer function registered in
// the constructor table. The exploratory compile used to classify the
// initializer is discarded so the value is computed exactly once, inside the
// initializer, never at top level.
func (e *Emitter) emitGlobal(b *ast.Binding) error {
	repr, err := e.lowerType(b.Type)
	if err != nil {
		return fmt.Errorf("binding %q: %w", b.Name, err)
	}
	symbol := e.mangle(b.Name)

	mark := e.mark()
	probe := newFnScope(e)
	v, err := probe.compileTerm(b.Value)
	if err != nil {
		e.rewind(mark)
		return fmt.Errorf("binding %q: %w", b.Name, err)
	}
	if v.imm && e.mark() == mark {
		e.globals = append(e.globals, fmt.Sprintf("@%s = global %s %s", symbol, repr, v.lit))
		e.globalVars[b.Name] = globalVar{symbol: symbol, repr: repr, typeName: b.Type}
		return nil
	}
	e.rewind(mark)

	e.globals = append(e.globals, fmt.Sprintf("@%s = global %s zeroinitializer", symbol, repr))
	e.globalVars[b.Name] = globalVar{symbol: symbol, repr: repr, typeName: b.Type}

	initName := "mml.init." + symbol
	sc := newFnScope(e)
	e.line("entry:")
	v, err = sc.compileTerm(b.Value)
	if err != nil {
		e.cur = nil
		return fmt.Errorf("binding %q initializer: %w", b.Name, err)
	}
	e.line("  store %s %s, %s* @%s%s", repr, v.operand(), repr, symbol, e.memoryTags(b.Type))
	e.line("  ret void")
	e.finishFunc(fmt.Sprintf("define internal void @%s()", initName))
	e.initFuncs = append(e.initFuncs, initName)
	return nil
}

// renderCtorTable emits the global-constructor array referencing every
// synthesized initializer at a fixed priority.
func (e *Emitter) renderCtorTable() string {
	if len(e.initFuncs) == 0 {
		return ""
	}
	entries := make([]string, 0, len(e.initFuncs))
	for _, name := range e.initFuncs {
		entries = append(entries,
			fmt.Sprintf("{ i32, void ()*, i8* } { i32 65535, void ()* @%s, i8* null }", name))
	}
	return fmt.Sprintf("@llvm.global_ctors = appending global [%d x { i32, void ()*, i8* }] [%s]",
		len(entries), strings.Join(entries, ", "))
}
