package llvm

import (
	"fmt"
	"strings"
)

// tbaaState accumulates the type-based alias-analysis tree. Nodes are
// memoized by structural identity so repeated requests return the same id
// and never re-emit metadata.
type tbaaState struct {
	nodes   map[string]int // structural description -> id
	scalars map[string]int // scalar name -> id
	structs map[string]int // struct name -> id
	tags    map[string]string
	lines   []string
	root    int
	hasRoot bool
}

func newTBAAState() tbaaState {
	return tbaaState{
		nodes:   make(map[string]int, 16),
		scalars: make(map[string]int, 16),
		structs: make(map[string]int, 8),
		tags:    make(map[string]string, 16),
	}
}

// tbaaField describes one struct member for metadata purposes.
type tbaaField struct {
	TypeName string
	Offset   int64
}

// ensureTBAARoot creates the single root anchor on first use.
func (e *Emitter) ensureTBAARoot() int {
	t := &e.tbaa
	if t.hasRoot {
		return t.root
	}
	id := e.newMeta()
	t.lines = append(t.lines, fmt.Sprintf("!%d = !{!\"mml-tbaa\"}", id))
	t.root = id
	t.hasRoot = true
	return id
}

// tbaaScalar creates (or returns) the scalar node for a type name, parented
// to the root.
func (e *Emitter) tbaaScalar(name string) int {
	t := &e.tbaa
	if id, ok := t.scalars[name]; ok {
		return id
	}
	root := e.ensureTBAARoot()
	id := e.newMeta()
	t.lines = append(t.lines, fmt.Sprintf("!%d = !{!\"%s\", !%d, i64 0}", id, name, root))
	t.scalars[name] = id
	return id
}

// tbaaStruct ensures every field's scalar node exists, then creates (or
// returns) the struct node listing (field node, byte offset) pairs.
func (e *Emitter) tbaaStruct(name string, fields []tbaaField) int {
	t := &e.tbaa
	if id, ok := t.structs[name]; ok {
		return id
	}
	parts := make([]string, 0, len(fields))
	key := strings.Builder{}
	key.WriteString("struct:")
	key.WriteString(name)
	for _, f := range fields {
		fid := e.tbaaScalar(f.TypeName)
		parts = append(parts, fmt.Sprintf("!%d, i64 %d", fid, f.Offset))
		fmt.Fprintf(&key, ":%d@%d", fid, f.Offset)
	}
	if id, ok := t.nodes[key.String()]; ok {
		t.structs[name] = id
		return id
	}
	id := e.newMeta()
	t.lines = append(t.lines, fmt.Sprintf("!%d = !{!\"%s\", %s}", id, name, strings.Join(parts, ", ")))
	t.nodes[key.String()] = id
	t.structs[name] = id
	return id
}

// tbaaAccessTag returns the `!N` reference attached to a scalar load/store,
// memoized so repeated accesses never duplicate metadata lines.
func (e *Emitter) tbaaAccessTag(typeName string) string {
	t := &e.tbaa
	key := "tag:" + typeName
	if ref, ok := t.tags[key]; ok {
		return ref
	}
	scalar := e.tbaaScalar(typeName)
	id := e.newMeta()
	t.lines = append(t.lines, fmt.Sprintf("!%d = !{!%d, !%d, i64 0}", id, scalar, scalar))
	ref := fmt.Sprintf("!%d", id)
	t.tags[key] = ref
	return ref
}

// tbaaFieldAccessTag returns the access tag for reading field index of a
// struct, memoized by the (struct, index) composite key.
func (e *Emitter) tbaaFieldAccessTag(structName string, fields []tbaaField, index int) (string, error) {
	if index < 0 || index >= len(fields) {
		return "", fmt.Errorf("field index %d out of range for struct %q", index, structName)
	}
	t := &e.tbaa
	key := fmt.Sprintf("ftag:%s:%d", structName, index)
	if ref, ok := t.tags[key]; ok {
		return ref, nil
	}
	structID := e.tbaaStruct(structName, fields)
	fieldID := e.tbaaScalar(fields[index].TypeName)
	id := e.newMeta()
	t.lines = append(t.lines, fmt.Sprintf("!%d = !{!%d, !%d, i64 %d}", id, structID, fieldID, fields[index].Offset))
	ref := fmt.Sprintf("!%d", id)
	t.tags[key] = ref
	return ref, nil
}

// tbaaFieldsFor derives metadata fields from a struct type name, or ok=false
// for non-aggregates.
func (e *Emitter) tbaaFieldsFor(typeName string) ([]tbaaField, bool) {
	def, ok := e.structInfo(typeName)
	if !ok {
		return nil, false
	}
	offsets, _, err := e.structLayout(def)
	if err != nil {
		return nil, false
	}
	fields := make([]tbaaField, 0, len(def.Struct.Fields))
	for i, f := range def.Struct.Fields {
		fields = append(fields, tbaaField{TypeName: f.Type, Offset: offsets[i]})
	}
	return fields, true
}
