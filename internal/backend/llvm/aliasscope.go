package llvm

import (
	"fmt"
	"sort"
	"strings"
)

// scopeState accumulates the alias-scope domain for one module: a single
// distinct domain plus one scope per type. Per-type scopes are cached; the
// no-alias set for a type is computed on demand from every other registered
// scope, ordered by numeric id for determinism.
type scopeState struct {
	domain    int
	hasDomain bool
	scopes    map[string]int
	lists     map[string]string // single-scope list nodes, per type
	lines     []string
}

func newScopeState() scopeState {
	return scopeState{
		scopes: make(map[string]int, 8),
		lists:  make(map[string]string, 8),
	}
}

// ensureScopeDomain creates the module's distinct alias domain on first use.
func (e *Emitter) ensureScopeDomain() int {
	s := &e.scopes
	if s.hasDomain {
		return s.domain
	}
	id := e.newMeta()
	s.lines = append(s.lines, fmt.Sprintf("!%d = distinct !{!%d, !\"%s\"}", id, id, e.moduleName))
	s.domain = id
	s.hasDomain = true
	return id
}

// scopeNode creates (or returns) the per-type scope nested under the domain.
func (e *Emitter) scopeNode(typeName string) int {
	s := &e.scopes
	if id, ok := s.scopes[typeName]; ok {
		return id
	}
	domain := e.ensureScopeDomain()
	id := e.newMeta()
	s.lines = append(s.lines, fmt.Sprintf("!%d = distinct !{!%d, !%d, !\"%s\"}", id, id, domain, typeName))
	s.scopes[typeName] = id
	return id
}

// scopeListRef returns the `!N` list node holding just the type's own scope,
// for !alias.scope attachments.
func (e *Emitter) scopeListRef(typeName string) string {
	s := &e.scopes
	if ref, ok := s.lists[typeName]; ok {
		return ref
	}
	scope := e.scopeNode(typeName)
	id := e.newMeta()
	s.lines = append(s.lines, fmt.Sprintf("!%d = !{!%d}", id, scope))
	ref := fmt.Sprintf("!%d", id)
	s.lists[typeName] = ref
	return ref
}

// noAliasRef builds the no-alias list for a type: every other registered
// scope, ordered by id. The set is recomputed on each request; callers see
// the scopes registered so far. Returns "" when no other scope exists.
func (e *Emitter) noAliasRef(typeName string) string {
	s := &e.scopes
	others := make([]int, 0, len(s.scopes))
	for name, id := range s.scopes {
		if name == typeName {
			continue
		}
		others = append(others, id)
	}
	if len(others) == 0 {
		return ""
	}
	sort.Ints(others)
	parts := make([]string, 0, len(others))
	for _, id := range others {
		parts = append(parts, fmt.Sprintf("!%d", id))
	}
	id := e.newMeta()
	s.lines = append(s.lines, fmt.Sprintf("!%d = !{%s}", id, strings.Join(parts, ", ")))
	return fmt.Sprintf("!%d", id)
}
