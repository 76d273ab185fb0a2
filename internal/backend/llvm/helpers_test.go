package llvm

import (
	"testing"

	"mmlc/internal/ast"
	"mmlc/internal/symbols"
)

func intLit(n int64) *ast.Term {
	return &ast.Term{Kind: ast.TermLitInt, Type: "Int", Lit: ast.Literal{Int: n}}
}

func strLit(s string) *ast.Term {
	return &ast.Term{Kind: ast.TermLitString, Type: "String", Lit: ast.Literal{Str: s}}
}

func ref(name, typ string) *ast.Term {
	return &ast.Term{Kind: ast.TermRef, Type: typ, Ref: ast.RefTerm{Name: name}}
}

func bin(op string, typ string, left, right *ast.Term) *ast.Term {
	return &ast.Term{Kind: ast.TermBinary, Type: typ, Binary: ast.BinaryTerm{Op: op, Left: left, Right: right}}
}

func apply(fn *ast.Term, arg *ast.Term, typ string) *ast.Term {
	return &ast.Term{Kind: ast.TermApply, Type: typ, Apply: ast.ApplyTerm{Fn: fn, Arg: arg}}
}

func cond(c, then, els *ast.Term, typ string) *ast.Term {
	return &ast.Term{Kind: ast.TermIf, Type: typ, If: ast.IfTerm{Cond: c, Then: then, Else: els}}
}

func testEmitter(t *testing.T, triple string) *Emitter {
	t.Helper()
	return NewEmitter("Demo", triple, symbols.Prelude())
}

func mustCompile(t *testing.T, sc *fnScope, term *ast.Term) value {
	t.Helper()
	v, err := sc.compileTerm(term)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return v
}
