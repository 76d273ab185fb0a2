// Package ast defines the typed program tree consumed by the native backend.
//
// The tree is the output contract of the upstream phases (parsing, name
// resolution, type checking, ownership analysis): every node carries its
// resolved source-level type name, implicit clone/free calls are already
// materialized as ordinary applications, and references resolve through the
// symbols index. The backend only lowers; it never re-derives types.
package ast

// TermKind enumerates term node kinds.
type TermKind uint8

const (
	// TermLitInt is an integer literal.
	TermLitInt TermKind = iota
	// TermLitBool is a boolean literal.
	TermLitBool
	// TermLitString is a string literal.
	TermLitString
	// TermLitUnit is the unit literal.
	TermLitUnit
	// TermRef is a resolved reference to a binding, parameter or function.
	TermRef
	// TermUnary is a unary operator application.
	TermUnary
	// TermBinary is a binary operator application.
	TermBinary
	// TermApply is a single-argument (curried) function application.
	TermApply
	// TermIf is a conditional expression.
	TermIf
	// TermSelect is a struct field selection.
	TermSelect
)

// Term is a typed tree node. Kind selects which payload field is valid.
type Term struct {
	Kind TermKind

	// Type is the resolved source-level type name of the whole term.
	Type string

	Lit    Literal
	Ref    RefTerm
	Unary  UnaryTerm
	Binary BinaryTerm
	Apply  ApplyTerm
	If     IfTerm
	Select SelectTerm
}

// Literal carries literal payloads; only the field matching the term kind is set.
type Literal struct {
	Int  int64
	Bool bool
	Str  string
}

// RefTerm references a binding by its resolved name.
type RefTerm struct {
	Name string
}

// UnaryTerm applies a unary operator.
type UnaryTerm struct {
	Op      string
	Operand *Term
}

// BinaryTerm applies a binary operator.
type BinaryTerm struct {
	Op    string
	Left  *Term
	Right *Term
}

// ApplyTerm applies a function to one argument. Curried calls nest on Fn;
// the emitter flattens the spine into a single call.
type ApplyTerm struct {
	Fn  *Term
	Arg *Term
}

// IfTerm is a conditional with both branches typed to the term's type.
type IfTerm struct {
	Cond *Term
	Then *Term
	Else *Term
}

// SelectTerm reads a struct field by its positional index.
type SelectTerm struct {
	Target *Term
	Field  string
	Index  int
}

// IsLiteral reports whether the term is a literal of any kind.
func (t *Term) IsLiteral() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TermLitInt, TermLitBool, TermLitString, TermLitUnit:
		return true
	default:
		return false
	}
}
