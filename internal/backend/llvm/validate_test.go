package llvm

import (
	"testing"

	"mmlc/internal/ast"
	"mmlc/internal/symbols"
)

func moduleWithMain(result string, params []ast.Param) *ast.Module {
	return &ast.Module{
		Name: "Demo",
		Bindings: []ast.Binding{{
			Name:   "main",
			Origin: ast.OriginFunction,
			Params: params,
			Result: result,
			Value:  intLit(0),
		}},
	}
}

func TestValidateMissingMain(t *testing.T) {
	mod := &ast.Module{Name: "Demo"}
	_, err := ValidateEntry(mod, symbols.Prelude())
	if err == nil || err.Error() != "No entry point 'main' found for binary compilation" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMainWithParameters(t *testing.T) {
	mod := moduleWithMain("Unit", []ast.Param{{Name: "x", Type: "Int"}})
	_, err := ValidateEntry(mod, symbols.Prelude())
	if err == nil || err.Error() != "Entry point 'main' must have no parameters" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMainReturningString(t *testing.T) {
	mod := moduleWithMain("String", nil)
	_, err := ValidateEntry(mod, symbols.Prelude())
	if err == nil {
		t.Fatalf("string-returning main must fail validation")
	}
}

func TestValidateAcceptsUnitAndIntegers(t *testing.T) {
	for _, result := range []string{"Unit", "Int", "Int32"} {
		mod := moduleWithMain(result, nil)
		sym, err := ValidateEntry(mod, symbols.Prelude())
		if err != nil {
			t.Fatalf("main returning %s must validate: %v", result, err)
		}
		if sym != "demo_main" {
			t.Fatalf("entry must bind the mangled symbol, got %q", sym)
		}
	}
}

func TestValidateResolvesReturnThroughAliases(t *testing.T) {
	ix := symbols.Prelude()
	addDef(t, ix, symbols.Def{Kind: symbols.DefAlias, Name: "ExitCode", Alias: symbols.AliasDef{Target: "Int32"}})
	mod := moduleWithMain("ExitCode", nil)
	if _, err := ValidateEntry(mod, ix); err != nil {
		t.Fatalf("aliased integer return must validate: %v", err)
	}
}

func TestLetMainIsNotAnEntryPoint(t *testing.T) {
	mod := &ast.Module{
		Name: "Demo",
		Bindings: []ast.Binding{{
			Name:   "main",
			Origin: ast.OriginLet,
			Type:   "Int",
			Value:  intLit(0),
		}},
	}
	_, err := ValidateEntry(mod, symbols.Prelude())
	if err == nil {
		t.Fatalf("a let binding named main must not satisfy the entry contract")
	}
}
