package llvm

import "testing"

func TestAccessTagMemoized(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	first := e.tbaaAccessTag("Int")
	grown := len(e.tbaa.lines)
	second := e.tbaaAccessTag("Int")
	if first != second {
		t.Fatalf("same scalar type must yield identical references: %q vs %q", first, second)
	}
	if len(e.tbaa.lines) != grown {
		t.Fatalf("second request must not grow metadata output: %d -> %d", grown, len(e.tbaa.lines))
	}
}

func TestMetadataIdsDenseFromZero(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	root := e.ensureTBAARoot()
	if root != 0 {
		t.Fatalf("first metadata id must be 0, got %d", root)
	}
	scalar := e.tbaaScalar("Int")
	if scalar != 1 {
		t.Fatalf("ids must be dense, got scalar id %d", scalar)
	}
	if e.ensureTBAARoot() != 0 {
		t.Fatalf("root must be created once")
	}
}

func TestStructNodeSharedByStructuralIdentity(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	fields := []tbaaField{{TypeName: "Int", Offset: 0}, {TypeName: "CharPtr", Offset: 8}}
	a := e.tbaaStruct("String", fields)
	b := e.tbaaStruct("String", fields)
	if a != b {
		t.Fatalf("repeated struct node requests must return the cached id")
	}
}

func TestFieldAccessTagMemoizedByCompositeKey(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	fields := []tbaaField{{TypeName: "Int", Offset: 0}, {TypeName: "CharPtr", Offset: 8}}
	tag0, err := e.tbaaFieldAccessTag("String", fields, 0)
	if err != nil {
		t.Fatalf("field tag failed: %v", err)
	}
	grown := len(e.tbaa.lines)
	again, err := e.tbaaFieldAccessTag("String", fields, 0)
	if err != nil || again != tag0 {
		t.Fatalf("field tag must be memoized: %q vs %q (err=%v)", tag0, again, err)
	}
	if len(e.tbaa.lines) != grown {
		t.Fatalf("memoized field tag must not re-emit metadata")
	}
	tag1, err := e.tbaaFieldAccessTag("String", fields, 1)
	if err != nil || tag1 == tag0 {
		t.Fatalf("distinct fields need distinct tags: %q vs %q (err=%v)", tag0, tag1, err)
	}
	if _, err := e.tbaaFieldAccessTag("String", fields, 5); err == nil {
		t.Fatalf("out-of-range field index must fail")
	}
}
