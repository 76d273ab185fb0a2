package llvm

import (
	"fmt"
	"strings"

	"mmlc/internal/ast"
)

// emitFunction lowers one function binding into a definition with a labeled
// entry block. Aggregate parameters and returns are repacked at the boundary
// when the active ABI strategy demands it; the body always works on the
// natural representation.
func (e *Emitter) emitFunction(b *ast.Binding) error {
	sc := newFnScope(e)

	type packedParam struct {
		name    string
		passing passing
	}
	var parts []string
	var pending []packedParam
	for _, p := range b.Params {
		pass, err := e.passingFor(p.Type)
		if err != nil {
			return err
		}
		if pass.natural == "void" {
			sc.bind(p.Name, immValue("", p.Type))
			continue
		}
		if pass.packed {
			parts = append(parts, fmt.Sprintf("%s %%%s.packed", pass.passed, p.Name))
			pending = append(pending, packedParam{name: p.Name, passing: pass})
		} else {
			parts = append(parts, fmt.Sprintf("%s %%%s", pass.passed, p.Name))
			sc.bind(p.Name, value{sym: "%" + p.Name, typeName: p.Type})
		}
	}

	ret, err := e.passingFor(b.Result)
	if err != nil {
		return err
	}

	e.line("entry:")
	for _, pp := range pending {
		in := value{sym: "%" + pp.name + ".packed", typeName: ""}
		unpacked, err := sc.emitUnpack(in, pp.passing.natural, pp.passing.fields, pp.passing.passed)
		if err != nil {
			return err
		}
		unpacked.typeName = paramType(b.Params, pp.name)
		sc.bind(pp.name, unpacked)
	}

	body, err := sc.compileTerm(b.Value)
	if err != nil {
		e.cur = nil
		return fmt.Errorf("function %q: %w", b.Name, err)
	}

	switch {
	case ret.natural == "void":
		e.line("  ret void")
	case ret.packed:
		packed, err := sc.emitPack(body, ret.natural, ret.fields, ret.passed)
		if err != nil {
			return err
		}
		e.line("  ret %s %s", ret.passed, packed.operand())
	default:
		e.line("  ret %s %s", ret.natural, body.operand())
	}

	e.finishFunc(fmt.Sprintf("define %s @%s(%s)", ret.passed, e.mangle(b.Name), strings.Join(parts, ", ")))
	return nil
}

func paramType(params []ast.Param, name string) string {
	for _, p := range params {
		if p.Name == name {
			return p.Type
		}
	}
	return ""
}

// emitMainWrapper defines the C-level @main that forwards to the module's
// validated entry point and normalizes its result to the process exit code.
func (e *Emitter) emitMainWrapper(entry *ast.Binding) error {
	def, err := e.index.ResolveType(entry.Result)
	if err != nil {
		return err
	}
	e.line("entry:")
	switch def.Native.Repr {
	case "void":
		e.line("  call void @%s()", e.mangle("main"))
		e.line("  ret i32 0")
	case "i32":
		reg := e.newReg()
		e.line("  %%r%d = call i32 @%s()", reg, e.mangle("main"))
		e.line("  ret i32 %%r%d", reg)
	case "i64":
		wide := e.newReg()
		e.line("  %%r%d = call i64 @%s()", wide, e.mangle("main"))
		narrow := e.newReg()
		e.line("  %%r%d = trunc i64 %%r%d to i32", narrow, wide)
		e.line("  ret i32 %%r%d", narrow)
	default:
		small := e.newReg()
		e.line("  %%r%d = call %s @%s()", small, def.Native.Repr, e.mangle("main"))
		wide := e.newReg()
		e.line("  %%r%d = sext %s %%r%d to i32", wide, def.Native.Repr, small)
		e.line("  ret i32 %%r%d", wide)
	}
	e.finishFunc("define i32 @main()")
	return nil
}
