package llvm

import (
	"strings"
	"testing"

	"mmlc/internal/symbols"
)

func TestLowerNativeScalarAndPointer(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	repr, err := e.lowerType("Int")
	if err != nil || repr != "i64" {
		t.Fatalf("Int should lower to i64, got %q err=%v", repr, err)
	}
	repr, err = e.lowerType("CharPtr")
	if err != nil || repr != "i8*" {
		t.Fatalf("CharPtr should lower to pointee plus suffix, got %q err=%v", repr, err)
	}
}

func TestLowerFollowsAliasChain(t *testing.T) {
	ix := symbols.Prelude()
	addDef(t, ix, symbols.Def{Kind: symbols.DefAlias, Name: "Id", Alias: symbols.AliasDef{Target: "Key"}})
	addDef(t, ix, symbols.Def{Kind: symbols.DefAlias, Name: "Key", Alias: symbols.AliasDef{Target: "Int32"}})
	e := NewEmitter("Demo", "x86_64-pc-linux-gnu", ix)
	repr, err := e.lowerType("Id")
	if err != nil || repr != "i32" {
		t.Fatalf("alias chain should reach i32, got %q err=%v", repr, err)
	}
}

func TestLowerStructEmitsDefinitionOnce(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	for i := 0; i < 3; i++ {
		repr, err := e.lowerType("String")
		if err != nil || repr != "%String" {
			t.Fatalf("String should lower to named aggregate, got %q err=%v", repr, err)
		}
	}
	if len(e.typeDefs) != 1 {
		t.Fatalf("struct definition must be emitted once, got %d", len(e.typeDefs))
	}
	if e.typeDefs[0] != "%String = type { i64, i8* }" {
		t.Fatalf("unexpected String definition: %q", e.typeDefs[0])
	}
}

func TestLowerStructFailsAtomically(t *testing.T) {
	ix := symbols.Prelude()
	addDef(t, ix, symbols.Def{Kind: symbols.DefStruct, Name: "Broken", Struct: symbols.StructDef{
		Fields: []symbols.Field{
			{Name: "ok", Type: "Int"},
			{Name: "bad", Type: "Nowhere"},
		},
	}})
	e := NewEmitter("Demo", "x86_64-pc-linux-gnu", ix)
	_, err := e.lowerType("Broken")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(err.Error(), "Nowhere") {
		t.Fatalf("error should name the offending reference: %v", err)
	}
	if len(e.typeDefs) != 0 {
		t.Fatalf("failed struct must not leave a definition behind")
	}
	if _, claimed := e.typeDefSet["Broken"]; claimed {
		t.Fatalf("failed struct must release its name")
	}
}

func TestLowerRejectsByValueSelfReference(t *testing.T) {
	ix := symbols.Prelude()
	addDef(t, ix, symbols.Def{Kind: symbols.DefStruct, Name: "Loop", Struct: symbols.StructDef{
		Fields: []symbols.Field{{Name: "next", Type: "Loop"}},
	}})
	e := NewEmitter("Demo", "x86_64-pc-linux-gnu", ix)
	if _, err := e.lowerType("Loop"); err == nil {
		t.Fatalf("by-value self reference must fail, not recurse")
	}
}

func TestStructLayoutOffsets(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	def, ok := e.structInfo("String")
	if !ok {
		t.Fatalf("String not a struct")
	}
	offsets, total, err := e.structLayout(def)
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}
	if offsets[0] != 0 || offsets[1] != 8 || total != 16 {
		t.Fatalf("unexpected String layout: offsets=%v total=%d", offsets, total)
	}
}

func addDef(t *testing.T, ix *symbols.Index, def symbols.Def) {
	t.Helper()
	if _, err := ix.Add(def); err != nil {
		t.Fatalf("add %q: %v", def.Name, err)
	}
}
