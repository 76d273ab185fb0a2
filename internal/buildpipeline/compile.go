package buildpipeline

import (
	"fmt"

	"mmlc/internal/ast"
	"mmlc/internal/backend/llvm"
	"mmlc/internal/symbols"
)

// CompileRequest configures lowering of one typed program to textual IR.
type CompileRequest struct {
	ProgramPath string
	Triple      string
	Mode        llvm.Mode
}

// CompileResult carries the emitted IR and its module context.
type CompileResult struct {
	Module      ast.Module
	IR          string
	EntrySymbol string
	Warnings    []string
}

// Compile loads a typed program from disk and lowers it to textual IR.
// Dump modes use this directly; Build runs it as the pipeline's first stage.
func Compile(req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	prog, err := ast.LoadProgram(req.ProgramPath)
	if err != nil {
		return result, err
	}
	result.Module = prog.Module

	ix, err := symbols.NewIndexFromDefs(prog.Defs)
	if err != nil {
		return result, fmt.Errorf("failed to build symbol index: %w", err)
	}
	emitted, err := llvm.EmitModule(&prog.Module, ix, llvm.Options{
		Triple: req.Triple,
		Mode:   req.Mode,
	})
	if err != nil {
		return result, err
	}
	result.IR = emitted.IR
	result.EntrySymbol = emitted.EntrySymbol
	result.Warnings = emitted.Warnings
	return result, nil
}
