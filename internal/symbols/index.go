// Package symbols implements the resolvable index: a stable-id arena mapping
// names to type and function definitions, produced upstream and consumed
// read-only by the backend.
//
// Definitions reference each other by name, never by pointer, so alias and
// struct graphs with cycles cannot form unbreakable reference cycles; alias
// chains are resolved iteratively with explicit cycle detection.
package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// SymbolID is a stable identifier into the index arena.
type SymbolID uint32

// NoSymbolID is the invalid sentinel.
const NoSymbolID SymbolID = 0

// DefKind enumerates definition kinds.
type DefKind uint8

const (
	// DefInvalid is the reserved zero kind.
	DefInvalid DefKind = iota
	// DefAlias names another type.
	DefAlias
	// DefNative is a native scalar or native pointer type annotation.
	DefNative
	// DefStruct is a struct definition (native or user-defined).
	DefStruct
	// DefFunc is a function or external declaration.
	DefFunc
)

// Def is one index entry. Kind selects which payload field is valid.
type Def struct {
	Kind DefKind
	Name string

	Alias  AliasDef
	Native NativeDef
	Struct StructDef
	Func   FuncDef
}

// AliasDef names the aliased type.
type AliasDef struct {
	Target string
}

// NativeDef carries the target representation of a native type annotation.
// Pointer types lower to the pointee representation with a pointer suffix.
type NativeDef struct {
	Repr    string
	Pointer bool
}

// Field is a struct field with its source-level type name.
type Field struct {
	Name string
	Type string
}

// StructDef lists ordered fields. Native marks runtime-provided structs.
type StructDef struct {
	Fields []Field
	Native bool
}

// FuncDef describes a callable: parameter and result type names.
// External declarations keep their unmangled symbol name.
type FuncDef struct {
	Params   []string
	Result   string
	External bool
}

// Index is the resolvable index arena. Entry 0 is reserved invalid.
type Index struct {
	defs   []Def
	byName map[string]SymbolID
}

// NewIndex returns an empty index with the invalid sentinel reserved.
func NewIndex() *Index {
	return &Index{
		defs:   []Def{{}},
		byName: make(map[string]SymbolID, 32),
	}
}

// NewIndexFromDefs builds an index from serialized definitions, on top of the
// prelude entries every module can assume.
func NewIndexFromDefs(defs []Def) (*Index, error) {
	ix := Prelude()
	for i := range defs {
		if _, err := ix.Add(defs[i]); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Add appends a definition and returns its stable id.
// Re-adding an existing name fails: upstream guarantees unique names.
func (ix *Index) Add(def Def) (SymbolID, error) {
	if def.Name == "" {
		return NoSymbolID, fmt.Errorf("definition without a name")
	}
	if _, dup := ix.byName[def.Name]; dup {
		return NoSymbolID, fmt.Errorf("duplicate definition %q", def.Name)
	}
	raw, err := safecast.Conv[uint32](len(ix.defs))
	if err != nil {
		return NoSymbolID, fmt.Errorf("index overflow: %w", err)
	}
	id := SymbolID(raw)
	ix.defs = append(ix.defs, def)
	ix.byName[def.Name] = id
	return id, nil
}

// Lookup finds a definition id by name.
func (ix *Index) Lookup(name string) (SymbolID, bool) {
	id, ok := ix.byName[name]
	return id, ok
}

// Get returns the definition for a stable id, or nil for the sentinel and
// out-of-range ids.
func (ix *Index) Get(id SymbolID) *Def {
	if id == NoSymbolID || int(id) >= len(ix.defs) {
		return nil
	}
	return &ix.defs[id]
}

// Func returns the function definition bound to name.
func (ix *Index) Func(name string) (*Def, error) {
	id, ok := ix.byName[name]
	if !ok {
		return nil, fmt.Errorf("unresolved function reference %q", name)
	}
	def := &ix.defs[id]
	if def.Kind != DefFunc {
		return nil, fmt.Errorf("%q is not a function", name)
	}
	return def, nil
}

// ResolveType follows alias indirection to a fixed point and returns the
// underlying non-alias definition. It fails on unresolved references and on
// alias cycles.
func (ix *Index) ResolveType(name string) (*Def, error) {
	seen := make(map[string]struct{}, 4)
	cur := name
	for {
		if _, again := seen[cur]; again {
			return nil, fmt.Errorf("type alias cycle through %q (started at %q)", cur, name)
		}
		seen[cur] = struct{}{}
		id, ok := ix.byName[cur]
		if !ok {
			return nil, fmt.Errorf("unresolved type reference %q", cur)
		}
		def := &ix.defs[id]
		if def.Kind != DefAlias {
			return def, nil
		}
		cur = def.Alias.Target
	}
}
