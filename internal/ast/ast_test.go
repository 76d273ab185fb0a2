package ast_test

import (
	"strings"
	"testing"

	"mmlc/internal/ast"
	"mmlc/internal/symbols"
)

func demoModule() ast.Module {
	return ast.Module{
		Name: "Demo",
		Bindings: []ast.Binding{{
			Name:   "x",
			Origin: ast.OriginLet,
			Type:   "Int",
			Value:  &ast.Term{Kind: ast.TermLitInt, Type: "Int", Lit: ast.Literal{Int: 7}},
		}},
	}
}

func TestProgramRoundTrip(t *testing.T) {
	p := &ast.Program{
		Module: demoModule(),
		Defs: []symbols.Def{
			{Kind: symbols.DefAlias, Name: "Id", Alias: symbols.AliasDef{Target: "Int"}},
		},
	}
	data, err := ast.EncodeProgram(p)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := ast.DecodeProgram(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Module.Name != "Demo" || len(got.Module.Bindings) != 1 {
		t.Fatalf("module did not survive the round trip: %+v", got.Module)
	}
	if got.Module.Bindings[0].Value.Lit.Int != 7 {
		t.Fatalf("literal payload lost: %+v", got.Module.Bindings[0].Value)
	}
	if len(got.Defs) != 1 || got.Defs[0].Name != "Id" {
		t.Fatalf("defs lost: %+v", got.Defs)
	}
}

func TestDecodeRejectsWrongSchema(t *testing.T) {
	p := &ast.Program{Module: demoModule()}
	data, err := ast.EncodeProgram(p)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	// A truncated or foreign payload must not decode silently.
	if _, err := ast.DecodeProgram(data[:len(data)/2]); err == nil {
		t.Fatalf("corrupt payload must fail to decode")
	}
}

func TestDumpNamesBindings(t *testing.T) {
	m := demoModule()
	out := ast.Dump(&m)
	if !strings.Contains(out, "module Demo") || !strings.Contains(out, "let x: Int") {
		t.Fatalf("dump must name module and bindings:\n%s", out)
	}
	if !strings.Contains(out, "lit 7 : Int") {
		t.Fatalf("dump must render literal terms:\n%s", out)
	}
}

func TestIsLiteral(t *testing.T) {
	lit := &ast.Term{Kind: ast.TermLitBool, Lit: ast.Literal{Bool: true}}
	if !lit.IsLiteral() {
		t.Fatalf("bool literal must report literal")
	}
	refTerm := &ast.Term{Kind: ast.TermRef, Ref: ast.RefTerm{Name: "x"}}
	if refTerm.IsLiteral() {
		t.Fatalf("reference must not report literal")
	}
}
