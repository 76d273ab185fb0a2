package llvm

import (
	"fmt"
	"strings"
	"testing"
)

func TestScopeNodeCachedPerType(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	a := e.scopeNode("Int")
	b := e.scopeNode("Int")
	if a != b {
		t.Fatalf("per-type scope must be cached")
	}
	if e.scopeNode("String") == a {
		t.Fatalf("distinct types need distinct scopes")
	}
}

func TestNoAliasSetOrderedByID(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	intScope := e.scopeNode("Int")
	strScope := e.scopeNode("String")
	bufScope := e.scopeNode("Buffer")

	ref := e.noAliasRef("Int")
	if ref == "" {
		t.Fatalf("expected a no-alias set")
	}
	last := e.scopes.lines[len(e.scopes.lines)-1]
	want := fmt.Sprintf("!{!%d, !%d}", strScope, bufScope)
	if !strings.HasSuffix(last, want) {
		t.Fatalf("no-alias set must list other scopes ordered by id: %q (want suffix %q)", last, want)
	}
	if strings.Contains(last, fmt.Sprintf("!%d,", intScope)) {
		t.Fatalf("own scope must not appear in its no-alias set: %q", last)
	}
}

func TestNoAliasEmptyWithoutOtherScopes(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	e.scopeNode("Int")
	if ref := e.noAliasRef("Int"); ref != "" {
		t.Fatalf("sole scope has no no-alias set, got %q", ref)
	}
}

func TestDomainCreatedOncePerModule(t *testing.T) {
	e := testEmitter(t, "x86_64-pc-linux-gnu")
	d1 := e.ensureScopeDomain()
	d2 := e.ensureScopeDomain()
	if d1 != d2 {
		t.Fatalf("module must have one distinct domain")
	}
	if !strings.Contains(e.scopes.lines[0], "distinct") {
		t.Fatalf("domain node must be distinct: %q", e.scopes.lines[0])
	}
}
