package llvm

import (
	"fmt"
	"strconv"
	"strings"

	"mmlc/internal/ast"
	"mmlc/internal/symbols"
)

// compileTerm lowers one typed tree node. Literals come back as immediates
// with their text retained for inline use; everything else lands in a
// virtual register.
func (sc *fnScope) compileTerm(t *ast.Term) (value, error) {
	if t == nil {
		return value{}, fmt.Errorf("nil term")
	}
	switch t.Kind {
	case ast.TermLitInt:
		return immValue(strconv.FormatInt(t.Lit.Int, 10), typeOr(t.Type, "Int")), nil
	case ast.TermLitBool:
		lit := "false"
		if t.Lit.Bool {
			lit = "true"
		}
		return immValue(lit, typeOr(t.Type, "Bool")), nil
	case ast.TermLitString:
		op, err := sc.e.stringConstOperand(t.Lit.Str)
		if err != nil {
			return value{}, err
		}
		return immValue(op, typeOr(t.Type, "String")), nil
	case ast.TermLitUnit:
		return immValue("", "Unit"), nil
	case ast.TermRef:
		return sc.compileRef(t)
	case ast.TermUnary:
		return sc.compileUnary(t)
	case ast.TermBinary:
		return sc.compileBinary(t)
	case ast.TermApply:
		return sc.compileApply(t)
	case ast.TermIf:
		return sc.compileIf(t)
	case ast.TermSelect:
		return sc.compileSelect(t)
	default:
		return value{}, fmt.Errorf("unsupported tree node kind %d", t.Kind)
	}
}

func typeOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// compileRef resolves a reference: locals reuse their recorded value; other
// names load from global storage with alias/TBAA tags attached.
func (sc *fnScope) compileRef(t *ast.Term) (value, error) {
	name := t.Ref.Name
	if v, ok := sc.lookup(name); ok {
		return v, nil
	}
	gv, ok := sc.e.globalVars[name]
	if !ok {
		return value{}, fmt.Errorf("unresolved reference %q", name)
	}
	reg := sc.e.newReg()
	sc.e.line("  %%r%d = load %s, %s* @%s%s", reg, gv.repr, gv.repr, gv.symbol, sc.e.memoryTags(gv.typeName))
	return regValue(reg, gv.typeName), nil
}

// memoryTags renders the metadata suffix for a load/store of the given type:
// a TBAA access tag for scalars, alias-scope membership for every type, and
// the no-alias set when other scopes exist.
func (e *Emitter) memoryTags(typeName string) string {
	var b strings.Builder
	if _, isStruct := e.structInfo(typeName); !isStruct {
		fmt.Fprintf(&b, ", !tbaa %s", e.tbaaAccessTag(typeName))
	}
	fmt.Fprintf(&b, ", !alias.scope %s", e.scopeListRef(typeName))
	if ref := e.noAliasRef(typeName); ref != "" {
		fmt.Fprintf(&b, ", !noalias %s", ref)
	}
	return b.String()
}

type opClass uint8

const (
	opArith opClass = iota
	opCompare
	opLogic
)

type opInfo struct {
	instr string
	class opClass
}

// binOps is the fixed operator-symbol table.
var binOps = map[string]opInfo{
	"+":  {instr: "add", class: opArith},
	"-":  {instr: "sub", class: opArith},
	"*":  {instr: "mul", class: opArith},
	"/":  {instr: "sdiv", class: opArith},
	"%":  {instr: "srem", class: opArith},
	"==": {instr: "icmp eq", class: opCompare},
	"!=": {instr: "icmp ne", class: opCompare},
	"<":  {instr: "icmp slt", class: opCompare},
	"<=": {instr: "icmp sle", class: opCompare},
	">":  {instr: "icmp sgt", class: opCompare},
	">=": {instr: "icmp sge", class: opCompare},
	"&&": {instr: "and", class: opLogic},
	"||": {instr: "or", class: opLogic},
}

// floatOps overrides the integer opcodes when the lowered operand
// representation is a floating-point type. Comparisons are ordered: a NaN
// operand makes them false.
var floatOps = map[string]string{
	"+":  "fadd",
	"-":  "fsub",
	"*":  "fmul",
	"/":  "fdiv",
	"%":  "frem",
	"==": "fcmp oeq",
	"!=": "fcmp one",
	"<":  "fcmp olt",
	"<=": "fcmp ole",
	">":  "fcmp ogt",
	">=": "fcmp oge",
}

func isFloatRepr(repr string) bool {
	return repr == "float" || repr == "double"
}

func (sc *fnScope) compileUnary(t *ast.Term) (value, error) {
	operand, err := sc.compileTerm(t.Unary.Operand)
	if err != nil {
		return value{}, err
	}
	switch t.Unary.Op {
	case "-":
		if operand.imm {
			if n, err := strconv.ParseInt(operand.lit, 10, 64); err == nil {
				return immValue(strconv.FormatInt(-n, 10), operand.typeName), nil
			}
		}
		repr, err := sc.e.lowerType(operand.typeName)
		if err != nil {
			return value{}, err
		}
		reg := sc.e.newReg()
		if isFloatRepr(repr) {
			sc.e.line("  %%r%d = fneg %s %s", reg, repr, operand.operand())
		} else {
			sc.e.line("  %%r%d = sub %s 0, %s", reg, repr, operand.operand())
		}
		return regValue(reg, operand.typeName), nil
	case "!":
		reg := sc.e.newReg()
		sc.e.line("  %%r%d = xor i1 %s, true", reg, operand.operand())
		return regValue(reg, "Bool"), nil
	default:
		return value{}, fmt.Errorf("unsupported unary operator %q", t.Unary.Op)
	}
}

func (sc *fnScope) compileBinary(t *ast.Term) (value, error) {
	op, ok := binOps[t.Binary.Op]
	if !ok {
		return value{}, fmt.Errorf("unsupported binary operator %q", t.Binary.Op)
	}
	left, err := sc.compileTerm(t.Binary.Left)
	if err != nil {
		return value{}, err
	}
	right, err := sc.compileTerm(t.Binary.Right)
	if err != nil {
		return value{}, err
	}
	if op.class == opArith && left.imm && right.imm {
		if folded, ok := foldArith(t.Binary.Op, left.lit, right.lit); ok {
			return immValue(folded, left.typeName), nil
		}
	}
	var repr string
	switch op.class {
	case opLogic:
		repr = "i1"
	default:
		repr, err = sc.e.lowerType(left.typeName)
		if err != nil {
			return value{}, err
		}
	}
	instr := op.instr
	if op.class != opLogic && isFloatRepr(repr) {
		instr = floatOps[t.Binary.Op]
	}
	reg := sc.e.newReg()
	sc.e.line("  %%r%d = %s %s %s, %s", reg, instr, repr, left.operand(), right.operand())
	resultType := left.typeName
	if op.class != opArith {
		resultType = "Bool"
	}
	return regValue(reg, resultType), nil
}

// foldArith folds literal-only integer arithmetic. Division by a zero
// literal is left to the instruction so runtime semantics are preserved.
func foldArith(op, left, right string) (string, bool) {
	l, errL := strconv.ParseInt(left, 10, 64)
	r, errR := strconv.ParseInt(right, 10, 64)
	if errL != nil || errR != nil {
		return "", false
	}
	var n int64
	switch op {
	case "+":
		n = l + r
	case "-":
		n = l - r
	case "*":
		n = l * r
	case "/":
		if r == 0 {
			return "", false
		}
		n = l / r
	case "%":
		if r == 0 {
			return "", false
		}
		n = l % r
	default:
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

// compileApply flattens a curried application spine into one call: walk Fn
// links until the direct callee reference, then compile arguments
// left-to-right.
func (sc *fnScope) compileApply(t *ast.Term) (value, error) {
	var args []*ast.Term
	cur := t
	for cur.Kind == ast.TermApply {
		args = append([]*ast.Term{cur.Apply.Arg}, args...)
		cur = cur.Apply.Fn
	}
	if cur.Kind != ast.TermRef {
		return value{}, fmt.Errorf("call target must be a direct reference, got node kind %d", cur.Kind)
	}
	return sc.compileCall(cur.Ref.Name, args)
}

func (sc *fnScope) compileCall(fnName string, args []*ast.Term) (value, error) {
	e := sc.e
	def, err := e.index.Func(fnName)
	if err != nil {
		return value{}, err
	}
	params := def.Func.Params
	if len(args) != len(params) {
		return value{}, fmt.Errorf("call to %q applies %d arguments to %d parameters", fnName, len(args), len(params))
	}

	argTexts := make([]string, 0, len(args))
	declParams := make([]string, 0, len(params))
	for i, arg := range args {
		v, err := sc.compileTerm(arg)
		if err != nil {
			return value{}, err
		}
		p, err := e.passingFor(params[i])
		if err != nil {
			return value{}, err
		}
		if p.natural == "void" {
			continue // unit arguments carry no data
		}
		if p.packed {
			v, err = sc.emitPack(v, p.natural, p.fields, p.passed)
			if err != nil {
				return value{}, err
			}
		}
		argTexts = append(argTexts, fmt.Sprintf("%s %s", p.passed, v.operand()))
		declParams = append(declParams, p.passed)
	}

	ret, err := e.passingFor(def.Func.Result)
	if err != nil {
		return value{}, err
	}
	symbol := fnName
	if def.Func.External {
		e.declareExtern(fnName, fmt.Sprintf("declare %s @%s(%s)", ret.passed, fnName, strings.Join(declParams, ", ")))
	} else {
		symbol = e.mangle(fnName)
	}

	if ret.natural == "void" {
		e.line("  call void @%s(%s)", symbol, strings.Join(argTexts, ", "))
		return immValue("", "Unit"), nil
	}
	reg := e.newReg()
	e.line("  %%r%d = call %s @%s(%s)", reg, ret.passed, symbol, strings.Join(argTexts, ", "))
	out := regValue(reg, def.Func.Result)
	if ret.packed {
		return sc.emitUnpack(out, ret.natural, ret.fields, ret.passed)
	}
	return out, nil
}

// compileIf lowers a conditional into then/else/join blocks with a phi at
// the join. A nested conditional's own join block becomes the predecessor
// label recorded here.
func (sc *fnScope) compileIf(t *ast.Term) (value, error) {
	cond, err := sc.compileTerm(t.If.Cond)
	if err != nil {
		return value{}, err
	}
	thenL, elseL, joinL := sc.newBlockSet()
	sc.e.line("  br i1 %s, label %%%s, label %%%s", cond.operand(), thenL, elseL)

	sc.e.line("%s:", thenL)
	thenV, err := sc.compileTerm(t.If.Then)
	if err != nil {
		return value{}, err
	}
	thenExit := thenV.exit
	if thenExit == "" {
		thenExit = thenL
	}
	sc.e.line("  br label %%%s", joinL)

	sc.e.line("%s:", elseL)
	elseV, err := sc.compileTerm(t.If.Else)
	if err != nil {
		return value{}, err
	}
	elseExit := elseV.exit
	if elseExit == "" {
		elseExit = elseL
	}
	sc.e.line("  br label %%%s", joinL)

	sc.e.line("%s:", joinL)
	resultType := typeOr(t.Type, thenV.typeName)
	repr, err := sc.e.lowerType(resultType)
	if err != nil {
		return value{}, err
	}
	if repr == "void" {
		return value{imm: true, typeName: "Unit", exit: joinL}, nil
	}
	reg := sc.e.newReg()
	sc.e.line("  %%r%d = phi %s [ %s, %%%s ], [ %s, %%%s ]",
		reg, repr, thenV.operand(), thenExit, elseV.operand(), elseExit)
	out := regValue(reg, resultType)
	out.exit = joinL
	return out, nil
}

// compileSelect reads a struct field. A field of a global struct becomes a
// direct tagged load; anything else is an aggregate extract by positional
// index.
func (sc *fnScope) compileSelect(t *ast.Term) (value, error) {
	e := sc.e
	target := t.Select.Target
	if target == nil {
		return value{}, fmt.Errorf("field selection without a target")
	}
	def, ok := e.structInfo(target.Type)
	if !ok {
		return value{}, fmt.Errorf("field selection on non-struct type %q", target.Type)
	}
	if t.Select.Index < 0 || t.Select.Index >= len(def.Struct.Fields) {
		return value{}, fmt.Errorf("field index %d out of range for struct %q", t.Select.Index, def.Name)
	}
	fieldType := def.Struct.Fields[t.Select.Index].Type

	if target.Kind == ast.TermRef {
		if _, local := sc.lookup(target.Ref.Name); !local {
			if gv, global := e.globalVars[target.Ref.Name]; global {
				return sc.selectFromGlobal(gv, def, t.Select.Index, fieldType)
			}
		}
	}

	v, err := sc.compileTerm(target)
	if err != nil {
		return value{}, err
	}
	repr, err := e.lowerType(target.Type)
	if err != nil {
		return value{}, err
	}
	reg := e.newReg()
	e.line("  %%r%d = extractvalue %s %s, %d", reg, repr, v.operand(), t.Select.Index)
	return regValue(reg, fieldType), nil
}

func (sc *fnScope) selectFromGlobal(gv globalVar, def *symbols.Def, index int, fieldType string) (value, error) {
	e := sc.e
	fieldRepr, err := e.lowerType(fieldType)
	if err != nil {
		return value{}, err
	}
	fields, ok := e.tbaaFieldsFor(gv.typeName)
	if !ok {
		return value{}, fmt.Errorf("no layout for struct %q", def.Name)
	}
	tag, err := e.tbaaFieldAccessTag(def.Name, fields, index)
	if err != nil {
		return value{}, err
	}
	ptr := e.newReg()
	e.line("  %%r%d = getelementptr inbounds %s, %s* @%s, i32 0, i32 %d", ptr, gv.repr, gv.repr, gv.symbol, index)
	reg := e.newReg()
	e.line("  %%r%d = load %s, %s* %%r%d, !tbaa %s", reg, fieldRepr, fieldRepr, ptr, tag)
	return regValue(reg, fieldType), nil
}
