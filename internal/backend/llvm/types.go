package llvm

import (
	"fmt"
	"strings"

	"mmlc/internal/symbols"
)

// lowerType resolves a source-level type name to its target representation,
// following alias chains through the resolvable index. Struct definitions are
// emitted (once) as a side effect; a struct fails atomically if any field
// fails to lower.
func (e *Emitter) lowerType(name string) (string, error) {
	def, err := e.index.ResolveType(name)
	if err != nil {
		return "", err
	}
	switch def.Kind {
	case symbols.DefNative:
		if def.Native.Pointer {
			return def.Native.Repr + "*", nil
		}
		return def.Native.Repr, nil
	case symbols.DefStruct:
		if err := e.ensureStructDef(def); err != nil {
			return "", err
		}
		return "%" + def.Name, nil
	default:
		return "", fmt.Errorf("cannot lower type reference %q", name)
	}
}

// ensureStructDef emits the named aggregate definition for def, lowering
// every field first so a failing field leaves nothing behind.
func (e *Emitter) ensureStructDef(def *symbols.Def) error {
	if _, done := e.typeDefSet[def.Name]; done {
		return nil
	}
	// Claim the name up front so a by-value self-reference surfaces as an
	// unresolved shape instead of unbounded recursion.
	e.typeDefSet[def.Name] = struct{}{}
	reprs := make([]string, 0, len(def.Struct.Fields))
	for _, f := range def.Struct.Fields {
		repr, err := e.lowerType(f.Type)
		if err != nil {
			delete(e.typeDefSet, def.Name)
			return fmt.Errorf("struct %q field %q: %w", def.Name, f.Name, err)
		}
		if repr == "%"+def.Name {
			delete(e.typeDefSet, def.Name)
			return fmt.Errorf("struct %q contains itself by value", def.Name)
		}
		reprs = append(reprs, repr)
	}
	e.typeDefs = append(e.typeDefs, fmt.Sprintf("%%%s = type { %s }", def.Name, strings.Join(reprs, ", ")))
	return nil
}

// structInfo returns the resolved struct definition behind a type name, or
// ok=false when the name lowers to a non-aggregate.
func (e *Emitter) structInfo(name string) (*symbols.Def, bool) {
	def, err := e.index.ResolveType(name)
	if err != nil || def.Kind != symbols.DefStruct {
		return nil, false
	}
	return def, true
}

// fieldReprs lowers every field of a struct definition, in order.
func (e *Emitter) fieldReprs(def *symbols.Def) ([]string, error) {
	reprs := make([]string, 0, len(def.Struct.Fields))
	for _, f := range def.Struct.Fields {
		repr, err := e.lowerType(f.Type)
		if err != nil {
			return nil, err
		}
		reprs = append(reprs, repr)
	}
	return reprs, nil
}

func isPointerRepr(repr string) bool {
	return strings.HasSuffix(repr, "*")
}

// reprSize returns the byte size of a lowered representation; named
// aggregates are summed over their (aligned) fields.
func (e *Emitter) reprSize(repr string) (int64, error) {
	if isPointerRepr(repr) {
		return 8, nil
	}
	switch repr {
	case "i1", "i8":
		return 1, nil
	case "i16":
		return 2, nil
	case "i32", "float":
		return 4, nil
	case "i64", "double":
		return 8, nil
	}
	if name, ok := strings.CutPrefix(repr, "%"); ok {
		id, found := e.index.Lookup(name)
		if !found {
			return 0, fmt.Errorf("unknown aggregate %q", repr)
		}
		def := e.index.Get(id)
		if def == nil || def.Kind != symbols.DefStruct {
			return 0, fmt.Errorf("unknown aggregate %q", repr)
		}
		_, total, err := e.structLayout(def)
		return total, err
	}
	return 0, fmt.Errorf("unknown representation %q", repr)
}

// structLayout computes per-field byte offsets (natural alignment, capped at
// 8) plus the padded total size.
func (e *Emitter) structLayout(def *symbols.Def) ([]int64, int64, error) {
	offsets := make([]int64, 0, len(def.Struct.Fields))
	var off int64
	var maxAlign int64 = 1
	for _, f := range def.Struct.Fields {
		repr, err := e.lowerType(f.Type)
		if err != nil {
			return nil, 0, err
		}
		size, err := e.reprSize(repr)
		if err != nil {
			return nil, 0, err
		}
		align := size
		if align > 8 {
			align = 8
		}
		if align < 1 {
			align = 1
		}
		if align > maxAlign {
			maxAlign = align
		}
		if rem := off % align; rem != 0 {
			off += align - rem
		}
		offsets = append(offsets, off)
		off += size
	}
	if rem := off % maxAlign; rem != 0 {
		off += maxAlign - rem
	}
	return offsets, off, nil
}
