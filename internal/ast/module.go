package ast

// BindingOrigin records what source construct produced a top-level binding.
type BindingOrigin uint8

const (
	// OriginLet marks a value binding (`let x = ...`).
	OriginLet BindingOrigin = iota
	// OriginFunction marks a function definition.
	OriginFunction
)

// Param is a function parameter with its resolved type name.
type Param struct {
	Name string
	Type string
}

// Binding is one top-level module member.
//
// OriginLet bindings carry Type and Value. OriginFunction bindings carry
// Params, Result and Value (the body); Type is the function type name and is
// not consulted by the backend.
type Binding struct {
	Name   string
	Origin BindingOrigin
	Type   string
	Params []Param
	Result string
	Value  *Term
}

// Module is a fully resolved, typed compilation unit.
type Module struct {
	Name     string
	Bindings []Binding
}

// Binding returns the first top-level binding with the given name.
func (m *Module) Binding(name string) (*Binding, bool) {
	for i := range m.Bindings {
		if m.Bindings[i].Name == name {
			return &m.Bindings[i], true
		}
	}
	return nil, false
}
