package symbols

import (
	"strings"
	"testing"
)

func TestResolveTypeFollowsAliasChain(t *testing.T) {
	ix := Prelude()
	mustAdd(t, ix, Def{Kind: DefAlias, Name: "Id", Alias: AliasDef{Target: "UserId"}})
	mustAdd(t, ix, Def{Kind: DefAlias, Name: "UserId", Alias: AliasDef{Target: "Int"}})

	def, err := ix.ResolveType("Id")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if def.Kind != DefNative || def.Native.Repr != "i64" {
		t.Fatalf("expected Id to resolve to native i64, got %+v", def)
	}
}

func TestResolveTypeDetectsAliasCycle(t *testing.T) {
	ix := NewIndex()
	mustAdd(t, ix, Def{Kind: DefAlias, Name: "A", Alias: AliasDef{Target: "B"}})
	mustAdd(t, ix, Def{Kind: DefAlias, Name: "B", Alias: AliasDef{Target: "A"}})

	_, err := ix.ResolveType("A")
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("error should name the cycle, got: %v", err)
	}
}

func TestResolveTypeUnresolvedReference(t *testing.T) {
	ix := NewIndex()
	_, err := ix.ResolveType("Missing")
	if err == nil || !strings.Contains(err.Error(), "Missing") {
		t.Fatalf("error should name the offending reference, got: %v", err)
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	ix := NewIndex()
	mustAdd(t, ix, Def{Kind: DefNative, Name: "X", Native: NativeDef{Repr: "i32"}})
	if _, err := ix.Add(Def{Kind: DefNative, Name: "X", Native: NativeDef{Repr: "i64"}}); err == nil {
		t.Fatalf("duplicate name must be rejected")
	}
}

func TestPreludeHasRuntimeContract(t *testing.T) {
	ix := Prelude()
	def, err := ix.ResolveType("String")
	if err != nil {
		t.Fatalf("String missing from prelude: %v", err)
	}
	if def.Kind != DefStruct || len(def.Struct.Fields) != 2 {
		t.Fatalf("String must be the runtime two-field struct, got %+v", def)
	}
	if _, err := ix.Func("println"); err != nil {
		t.Fatalf("println missing: %v", err)
	}
}

func TestPreludeHasArrayAndBuilderContract(t *testing.T) {
	ix := Prelude()
	for _, name := range []string{"IntArray", "StringArray"} {
		def, err := ix.ResolveType(name)
		if err != nil {
			t.Fatalf("%s missing from prelude: %v", name, err)
		}
		if def.Kind != DefStruct || len(def.Struct.Fields) != 2 {
			t.Fatalf("%s must be the runtime two-field struct, got %+v", name, def)
		}
	}
	externs := map[string]struct {
		params int
		result string
	}{
		"ar_int_new":              {1, "IntArray"},
		"ar_int_set":              {3, "Unit"},
		"ar_int_get":              {2, "Int"},
		"ar_int_len":              {1, "Int"},
		"ar_str_new":              {1, "StringArray"},
		"ar_str_set":              {3, "Unit"},
		"ar_str_get":              {2, "String"},
		"ar_str_len":              {1, "Int"},
		"string_builder_new":      {1, "StringBuilder"},
		"string_builder_append":   {2, "Unit"},
		"string_builder_finalize": {1, "String"},
	}
	for name, want := range externs {
		def, err := ix.Func(name)
		if err != nil {
			t.Fatalf("%s missing from prelude: %v", name, err)
		}
		if len(def.Func.Params) != want.params || def.Func.Result != want.result {
			t.Fatalf("%s signature drifted: %+v", name, def.Func)
		}
		if !def.Func.External {
			t.Fatalf("%s must be external", name)
		}
	}
}

func mustAdd(t *testing.T, ix *Index, def Def) SymbolID {
	t.Helper()
	id, err := ix.Add(def)
	if err != nil {
		t.Fatalf("add %q: %v", def.Name, err)
	}
	return id
}
