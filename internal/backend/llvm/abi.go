package llvm

import (
	"fmt"
	"strings"
)

// Strategy holds the per-architecture rules that rewrite how aggregates cross
// function boundaries. Rules are consulted in order; first match wins; no
// match passes the aggregate in its natural form.
type Strategy struct {
	arch  string
	rules []abiRule
}

type abiRule struct {
	match       func(fields []string) bool
	replacement func(fields []string) string
}

// Arch returns the architecture tag the strategy was built for.
func (s Strategy) Arch() string {
	return s.arch
}

// Lower decides whether an aggregate with the given field representations
// must be repacked, returning the replacement shape when a rule matches.
func (s Strategy) Lower(fields []string) (string, bool) {
	for _, rule := range s.rules {
		if rule.match(fields) {
			return rule.replacement(fields), true
		}
	}
	return "", false
}

// StrategyForTriple selects the rule set for a target triple's architecture.
func StrategyForTriple(triple string) Strategy {
	arch := triple
	if i := strings.IndexByte(triple, '-'); i >= 0 {
		arch = triple[:i]
	}
	switch arch {
	case "aarch64", "arm64":
		return Strategy{arch: arch, rules: []abiRule{pairOfWordsRule()}}
	default:
		return Strategy{arch: arch}
	}
}

// pairOfWordsRule packs a two-field aggregate whose fields are each a full
// machine word or a pointer into a two-element fixed array. Pointers cannot
// appear inside the packed array, so they are cast to a matching-width
// integer first.
func pairOfWordsRule() abiRule {
	return abiRule{
		match: func(fields []string) bool {
			if len(fields) != 2 {
				return false
			}
			for _, f := range fields {
				if !isWordRepr(f) {
					return false
				}
			}
			return true
		},
		replacement: func([]string) string {
			return "[2 x i64]"
		},
	}
}

func isWordRepr(repr string) bool {
	return repr == "i64" || isPointerRepr(repr)
}

// packCast returns the cast instruction moving a field representation into a
// packed i64 slot, or "" when the field is stored as-is.
func packCast(fieldRepr string) string {
	if isPointerRepr(fieldRepr) {
		return "ptrtoint"
	}
	return ""
}

// unpackCast is the strict inverse of packCast.
func unpackCast(fieldRepr string) string {
	if isPointerRepr(fieldRepr) {
		return "inttoptr"
	}
	return ""
}

// emitPack lowers an aggregate value into its packed parameter/return shape:
// extract every field, cast pointer fields to i64, repack into packed.
func (sc *fnScope) emitPack(v value, aggRepr string, fields []string, packed string) (value, error) {
	e := sc.e
	agg := "undef"
	for i, fieldRepr := range fields {
		field := e.newReg()
		e.line("  %%r%d = extractvalue %s %s, %d", field, aggRepr, v.operand(), i)
		slot := field
		if cast := packCast(fieldRepr); cast != "" {
			slot = e.newReg()
			e.line("  %%r%d = %s %s %%r%d to i64", slot, cast, fieldRepr, field)
		}
		next := e.newReg()
		e.line("  %%r%d = insertvalue %s %s, i64 %%r%d, %d", next, packed, agg, slot, i)
		agg = fmt.Sprintf("%%r%d", next)
	}
	out := regValue(e.nextReg-1, v.typeName)
	out.exit = v.exit
	return out, nil
}

// emitUnpack performs the inverse of emitPack: extract each packed slot and
// cast pointer fields back before rebuilding the natural aggregate.
func (sc *fnScope) emitUnpack(v value, aggRepr string, fields []string, packed string) (value, error) {
	e := sc.e
	agg := "undef"
	for i, fieldRepr := range fields {
		slot := e.newReg()
		e.line("  %%r%d = extractvalue %s %s, %d", slot, packed, v.operand(), i)
		field := slot
		if cast := unpackCast(fieldRepr); cast != "" {
			field = e.newReg()
			e.line("  %%r%d = %s i64 %%r%d to %s", field, cast, slot, fieldRepr)
		}
		next := e.newReg()
		e.line("  %%r%d = insertvalue %s %s, %s %%r%d, %d", next, aggRepr, agg, fieldRepr, field, i)
		agg = fmt.Sprintf("%%r%d", next)
	}
	out := regValue(e.nextReg-1, v.typeName)
	out.exit = v.exit
	return out, nil
}

// loweredPassing resolves how a value of the given source type crosses a
// function boundary under the active strategy. natural is the in-body
// representation; passed is the boundary representation (equal to natural
// when no rule matches).
type passing struct {
	natural string
	passed  string
	fields  []string
	packed  bool
}

func (e *Emitter) passingFor(typeName string) (passing, error) {
	repr, err := e.lowerType(typeName)
	if err != nil {
		return passing{}, err
	}
	p := passing{natural: repr, passed: repr}
	def, ok := e.structInfo(typeName)
	if !ok {
		return p, nil
	}
	fields, err := e.fieldReprs(def)
	if err != nil {
		return passing{}, err
	}
	if packed, matched := e.abi.Lower(fields); matched {
		p.passed = packed
		p.fields = fields
		p.packed = true
	}
	return p, nil
}
