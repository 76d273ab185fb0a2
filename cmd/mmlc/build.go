package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mmlc/internal/ast"
	"mmlc/internal/backend/llvm"
	"mmlc/internal/buildpipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [program]",
	Short: "Build an MML program",
	Long:  "Build an MML program into a native executable or relocatable object, using mml.toml when present.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

func init() {
	buildCmd.Flags().String("target", "", "target triple (defaults to the host)")
	buildCmd.Flags().Bool("lib", false, "produce a relocatable object instead of an executable")
	buildCmd.Flags().Int("opt", 2, "optimization level (0-3)")
	buildCmd.Flags().Bool("emit-llvm", false, "keep a textual rendering of the optimized IR")
	buildCmd.Flags().Bool("print-ast", false, "print the typed tree and stop")
	buildCmd.Flags().Bool("print-ir", false, "print the emitted IR and stop")
	buildCmd.Flags().Bool("print-commands", false, "print external tool invocations")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	buildCmd.Flags().StringP("output", "o", "", "output name (defaults to the package or module name)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	req, opts, err := prepareBuild(cmd, args)
	if err != nil {
		return err
	}

	if opts.printAST || opts.printIR {
		return runDumpMode(cmd, req, opts)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	quiet := beQuiet(cmd)

	var buildRes buildpipeline.BuildResult
	if opts.useTUI {
		buildRes, err = runBuildWithUI(cmd.Context(), "mmlc build", req)
	} else {
		buildRes, err = buildpipeline.Build(cmd.Context(), req)
	}
	if !quiet {
		for _, warning := range buildRes.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
	}
	if err != nil {
		return err
	}
	if showTimings {
		printStageTimings(os.Stdout, buildRes.Timings, false)
	}
	if !quiet {
		fmt.Fprintf(os.Stdout, "built %s\n", formatPathForOutput(req.Dir, buildRes.OutputPath))
	}
	return nil
}

type buildOptions struct {
	printAST bool
	printIR  bool
	useTUI   bool
}

// prepareBuild resolves flags, the manifest and the program path into a
// ready-to-run build request. Shared by build and run.
func prepareBuild(cmd *cobra.Command, args []string) (*buildpipeline.BuildRequest, buildOptions, error) {
	var opts buildOptions

	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return nil, opts, err
	}
	lib, err := cmd.Flags().GetBool("lib")
	if err != nil {
		return nil, opts, err
	}
	optLevel, err := cmd.Flags().GetInt("opt")
	if err != nil {
		return nil, opts, err
	}
	emitLLVM, err := cmd.Flags().GetBool("emit-llvm")
	if err != nil {
		return nil, opts, err
	}
	opts.printAST, err = cmd.Flags().GetBool("print-ast")
	if err != nil {
		return nil, opts, err
	}
	opts.printIR, err = cmd.Flags().GetBool("print-ir")
	if err != nil {
		return nil, opts, err
	}
	printCommands, err := cmd.Flags().GetBool("print-commands")
	if err != nil {
		return nil, opts, err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, opts, err
	}
	outputName, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, opts, err
	}
	opts.useTUI, err = resolveUIMode(uiValue)
	if err != nil {
		return nil, opts, err
	}
	if opts.printAST && opts.printIR {
		return nil, opts, fmt.Errorf("--print-ast and --print-ir are mutually exclusive")
	}
	if optLevel < 0 || optLevel > 3 {
		return nil, opts, fmt.Errorf("invalid --opt value %d (expected 0-3)", optLevel)
	}

	manifest, manifestFound, err := loadProjectManifest(".")
	if err != nil {
		return nil, opts, err
	}

	var (
		programPath string
		dir         string
	)
	switch {
	case len(args) > 0 && args[0] != "":
		programPath = args[0]
		if _, statErr := os.Stat(programPath); statErr != nil {
			return nil, opts, fmt.Errorf("program file %q: %w", programPath, statErr)
		}
		dir = filepath.Dir(programPath)
	case manifestFound:
		programPath, err = resolveProgramPath(manifest)
		if err != nil {
			return nil, opts, err
		}
		dir = manifest.Root
	default:
		return nil, opts, errors.New(noManifestMessage)
	}

	if manifestFound {
		if outputName == "" {
			outputName = manifest.Config.Package.Name
		}
		if target == "" {
			target = manifest.Config.Build.Target
		}
		if !cmd.Flags().Changed("opt") && manifest.Config.Build.Opt != 0 {
			optLevel = manifest.Config.Build.Opt
		}
	}

	mode := llvm.ModeExecutable
	if lib {
		mode = llvm.ModeLibrary
	}

	req := &buildpipeline.BuildRequest{
		CompileRequest: buildpipeline.CompileRequest{
			ProgramPath: programPath,
			Triple:      target,
			Mode:        mode,
		},
		Dir:           dir,
		OutputName:    outputName,
		OptLevel:      optLevel,
		EmitLLVM:      emitLLVM,
		PrintCommands: printCommands,
	}
	return req, opts, nil
}

// runDumpMode handles --print-ast and --print-ir, which bypass the external
// toolchain entirely.
func runDumpMode(cmd *cobra.Command, req *buildpipeline.BuildRequest, opts buildOptions) error {
	if opts.printAST {
		prog, err := ast.LoadProgram(req.ProgramPath)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ast.Dump(&prog.Module))
		return nil
	}

	compileReq := req.CompileRequest
	compileReq.Mode = llvm.ModeDumpIR
	if compileReq.Triple == "" {
		triple, err := buildpipeline.ResolveTriple(req.Dir, "")
		if err != nil {
			triple = "unknown-unknown-unknown"
		}
		compileReq.Triple = triple
	}
	res, err := buildpipeline.Compile(&compileReq)
	if err != nil {
		return err
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	fmt.Fprint(cmd.OutOrStdout(), res.IR)
	return nil
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
