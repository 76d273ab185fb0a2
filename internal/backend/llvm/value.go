package llvm

import "fmt"

// value is the result of compiling one term: either a virtual register or an
// immediate literal not yet materialized. typeName is the source-level type;
// exit is the block the value arrives from, needed by a later join's
// predecessor list when the value came out of a branching construct.
type value struct {
	reg      int
	sym      string // named operand (function parameters), overrides reg
	imm      bool
	lit      string // literal text, valid when imm
	typeName string
	exit     string
}

// operand renders the value as an instruction operand.
func (v value) operand() string {
	if v.imm {
		return v.lit
	}
	if v.sym != "" {
		return v.sym
	}
	return fmt.Sprintf("%%r%d", v.reg)
}

func regValue(reg int, typeName string) value {
	return value{reg: reg, typeName: typeName}
}

func immValue(lit, typeName string) value {
	return value{imm: true, lit: lit, typeName: typeName}
}

// scopeEntry is a per-function local binding record: parameters and
// let-bound values resolve through it without re-materializing loads.
type scopeEntry struct {
	val value
}

// fnScope is the local compilation context for one function body.
type fnScope struct {
	e         *Emitter
	locals    map[string]scopeEntry
	nextBlock int
}

func newFnScope(e *Emitter) *fnScope {
	return &fnScope{
		e:      e,
		locals: make(map[string]scopeEntry, 8),
	}
}

func (sc *fnScope) bind(name string, v value) {
	sc.locals[name] = scopeEntry{val: v}
}

func (sc *fnScope) lookup(name string) (value, bool) {
	entry, ok := sc.locals[name]
	return entry.val, ok
}

// newBlockSet allocates the then/else/join label triple for one conditional.
func (sc *fnScope) newBlockSet() (then, els, join string) {
	id := sc.nextBlock
	sc.nextBlock++
	return fmt.Sprintf("then%d", id), fmt.Sprintf("else%d", id), fmt.Sprintf("join%d", id)
}
