package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"mmlc/internal/backend/llvm"
)

// BuildRequest configures a full native build of one module.
type BuildRequest struct {
	CompileRequest
	Dir           string // build working directory; out/ and target/ live below it
	OutputName    string // program name; defaults to the lowercased module name
	OptLevel      int
	EmitLLVM      bool // keep a textual rendering of the optimized bitcode
	Run           bool
	RunArgs       []string
	PrintCommands bool
	Progress      ProgressSink
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	Triple      string
	IRPath      string
	OutputPath  string
	EntrySymbol string
	Warnings    []string
	Timings     Timings
	ExitCode    int // exit status of the produced binary when Run is set
}

// pipeline carries the per-build context shared by every stage.
type pipeline struct {
	dir           string
	printCommands bool
	progress      ProgressSink
	timings       *Timings
}

// stageStep pairs a stage name with its work. Steps run strictly in order;
// the first failure halts the chain and surfaces that stage's error.
type stageStep struct {
	stage Stage
	skip  bool
	run   func() error
}

// Build drives the external tool pipeline: emit, assemble, runtime, optimize,
// optional disassembly, codegen, then link or object assembly, optionally
// followed by running the produced executable.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.Mode != llvm.ModeExecutable && req.Mode != llvm.ModeLibrary {
		return result, fmt.Errorf("build supports executable and library modes only, got mode %d", req.Mode)
	}
	reqCopy := *req
	req = &reqCopy

	dir := req.Dir
	if dir == "" {
		dir = "."
	}

	explicitTriple := req.Triple != ""
	triple, err := ResolveTriple(dir, req.Triple)
	if err != nil {
		return result, err
	}
	result.Triple = triple
	req.CompileRequest.Triple = triple

	outDir := filepath.Join(dir, "out", triple)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := NewToolChecker(dir).Verify(ctx, requiredTools(req)); err != nil {
		return result, err
	}

	p := &pipeline{
		dir:           dir,
		printCommands: req.PrintCommands,
		progress:      req.Progress,
		timings:       &result.Timings,
	}

	var compiled CompileResult
	if err := p.runStage(StageEmit, func() error {
		var err error
		compiled, err = Compile(&req.CompileRequest)
		return err
	}); err != nil {
		return result, err
	}
	result.EntrySymbol = compiled.EntrySymbol
	result.Warnings = compiled.Warnings

	moduleBase := strings.ToLower(compiled.Module.Name)
	llPath := filepath.Join(outDir, moduleBase+".ll")
	bcPath := filepath.Join(outDir, moduleBase+".bc")
	optBcPath := filepath.Join(outDir, moduleBase+"_opt.bc")
	optLlPath := filepath.Join(outDir, moduleBase+"_opt.ll")
	asmPath := filepath.Join(outDir, moduleBase+".s")
	result.IRPath = llPath

	if err := os.WriteFile(llPath, []byte(compiled.IR), 0o600); err != nil {
		return result, fmt.Errorf("failed to write IR: %w", err)
	}

	targetDir := filepath.Join(dir, "target")
	if err := os.MkdirAll(targetDir, 0o750); err != nil {
		return result, fmt.Errorf("failed to create target dir: %w", err)
	}
	outName := req.OutputName
	if outName == "" {
		outName = moduleBase
	}
	if explicitTriple {
		outName += "-" + triple
	}
	executable := req.Mode == llvm.ModeExecutable
	if !executable {
		outName += ".o"
	}
	outputPath := filepath.Join(targetDir, outName)
	result.OutputPath = outputPath

	var runtimeObj string
	steps := []stageStep{
		{stage: StageAssemble, run: func() error {
			return p.runTool("llvm-as", llPath, "-o", bcPath)
		}},
		{stage: StageRuntime, run: func() error {
			if executable {
				rtBc, err := p.ensureRuntimeBitcode(outDir, triple)
				if err != nil {
					return err
				}
				return p.runTool("llvm-link", bcPath, rtBc, "-o", bcPath)
			}
			var err error
			runtimeObj, err = p.ensureRuntimeObject(outDir, triple)
			return err
		}},
		{stage: StageOptimize, run: func() error {
			return p.runTool("opt", fmt.Sprintf("-O%d", req.OptLevel), bcPath, "-o", optBcPath)
		}},
		{stage: StageDisasm, skip: !req.EmitLLVM, run: func() error {
			return p.runTool("llvm-dis", optBcPath, "-o", optLlPath)
		}},
		{stage: StageCodegen, run: func() error {
			return p.runTool("llc", "-mtriple="+triple, optBcPath, "-o", asmPath)
		}},
		{stage: StageLink, skip: !executable, run: func() error {
			return p.runTool("clang", "-target", triple, asmPath, "-o", outputPath)
		}},
		{stage: StageObject, skip: executable, run: func() error {
			if err := p.runTool("clang", "-c", "-target", triple, asmPath, "-o", outputPath); err != nil {
				return err
			}
			return copyFile(runtimeObj, filepath.Join(targetDir, runtimeObjectName))
		}},
		{stage: StageRun, skip: !req.Run || !executable, run: func() error {
			code, err := p.runBinary(outputPath, req.RunArgs)
			result.ExitCode = code
			return err
		}},
	}

	if err := p.runSteps(steps); err != nil {
		return result, err
	}
	return result, nil
}

// requiredTools lists the external tools this build will invoke.
func requiredTools(req *BuildRequest) []string {
	tools := []string{"llvm-as", "opt", "llc", "clang"}
	if req.Mode == llvm.ModeExecutable {
		tools = append(tools, "llvm-link")
	}
	if req.EmitLLVM {
		tools = append(tools, "llvm-dis")
	}
	return tools
}

// runSteps executes each non-skipped step in order, stopping at the first
// failure. The returned error is always the failing stage's own error.
func (p *pipeline) runSteps(steps []stageStep) error {
	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := p.runStage(step.stage, step.run); err != nil {
			return err
		}
	}
	return nil
}

// runStage times one stage, reports progress events and wraps any failure
// with the stage name.
func (p *pipeline) runStage(stage Stage, fn func() error) error {
	p.emit(Event{Stage: stage, Status: StatusWorking})
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.timings.Set(stage, elapsed)
	if err != nil {
		staged := &StageError{Stage: stage, Err: err}
		p.emit(Event{Stage: stage, Status: StatusError, Err: staged, Elapsed: elapsed})
		return staged
	}
	p.emit(Event{Stage: stage, Status: StatusDone, Elapsed: elapsed})
	return nil
}

func (p *pipeline) emit(ev Event) {
	if p.progress != nil {
		p.progress.OnEvent(ev)
	}
}

// runTool launches one external tool and waits for it. A tool missing at
// launch time means the cached verification marker lied, so the marker is
// invalidated before the error is reported; the invocation is not retried.
func (p *pipeline) runTool(name string, args ...string) error {
	if p.printCommands {
		fmt.Fprintf(os.Stdout, "%s %s\n", name, strings.Join(args, " "))
	}
	cmd := exec.Command(name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			InvalidateMarker(p.dir)
			return fmt.Errorf("%s disappeared from PATH: %w", name, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %s", name, msg)
	}
	return nil
}

// runBinary executes the produced program, forwarding standard streams. The
// binary's exit status is always returned; a non-zero status is also an error.
func (p *pipeline) runBinary(path string, args []string) (int, error) {
	if p.printCommands {
		fmt.Fprintf(os.Stdout, "%s %s\n", path, strings.Join(args, " "))
	}
	// #nosec G204 -- path is the build output we just produced
	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			return code, fmt.Errorf("program exited with status %d", code)
		}
		return -1, err
	}
	return 0, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- both paths are derived from build configuration
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("failed to copy runtime object: %w", err)
	}
	return nil
}
