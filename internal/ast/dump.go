package ast

import (
	"fmt"
	"strings"
)

// Dump renders the typed tree in a compact indented form for the
// dump-typed-tree compilation mode.
func Dump(m *Module) string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", m.Name)
	for i := range m.Bindings {
		dumpBinding(&b, &m.Bindings[i])
	}
	return b.String()
}

func dumpBinding(b *strings.Builder, bind *Binding) {
	switch bind.Origin {
	case OriginFunction:
		params := make([]string, 0, len(bind.Params))
		for _, p := range bind.Params {
			params = append(params, p.Name+": "+p.Type)
		}
		fmt.Fprintf(b, "  fn %s(%s) -> %s\n", bind.Name, strings.Join(params, ", "), bind.Result)
	default:
		fmt.Fprintf(b, "  let %s: %s\n", bind.Name, bind.Type)
	}
	dumpTerm(b, bind.Value, 2)
}

func dumpTerm(b *strings.Builder, t *Term, depth int) {
	if t == nil {
		return
	}
	pad := strings.Repeat("  ", depth)
	switch t.Kind {
	case TermLitInt:
		fmt.Fprintf(b, "%slit %d : %s\n", pad, t.Lit.Int, t.Type)
	case TermLitBool:
		fmt.Fprintf(b, "%slit %v : %s\n", pad, t.Lit.Bool, t.Type)
	case TermLitString:
		fmt.Fprintf(b, "%slit %q : %s\n", pad, t.Lit.Str, t.Type)
	case TermLitUnit:
		fmt.Fprintf(b, "%slit () : Unit\n", pad)
	case TermRef:
		fmt.Fprintf(b, "%sref %s : %s\n", pad, t.Ref.Name, t.Type)
	case TermUnary:
		fmt.Fprintf(b, "%sunary %s : %s\n", pad, t.Unary.Op, t.Type)
		dumpTerm(b, t.Unary.Operand, depth+1)
	case TermBinary:
		fmt.Fprintf(b, "%sbinary %s : %s\n", pad, t.Binary.Op, t.Type)
		dumpTerm(b, t.Binary.Left, depth+1)
		dumpTerm(b, t.Binary.Right, depth+1)
	case TermApply:
		fmt.Fprintf(b, "%sapply : %s\n", pad, t.Type)
		dumpTerm(b, t.Apply.Fn, depth+1)
		dumpTerm(b, t.Apply.Arg, depth+1)
	case TermIf:
		fmt.Fprintf(b, "%sif : %s\n", pad, t.Type)
		dumpTerm(b, t.If.Cond, depth+1)
		dumpTerm(b, t.If.Then, depth+1)
		dumpTerm(b, t.If.Else, depth+1)
	case TermSelect:
		fmt.Fprintf(b, "%sselect .%s [%d] : %s\n", pad, t.Select.Field, t.Select.Index, t.Type)
		dumpTerm(b, t.Select.Target, depth+1)
	default:
		fmt.Fprintf(b, "%s<unknown node %d>\n", pad, t.Kind)
	}
}
