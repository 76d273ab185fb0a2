package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mmlc/internal/backend/llvm"
	"mmlc/internal/buildpipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [program] [-- args]",
	Short: "Build and run an MML program",
	Long:  "Build an MML program into a native executable and run it immediately, forwarding arguments after --.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().String("target", "", "target triple (defaults to the host)")
	runCmd.Flags().Bool("lib", false, "produce a relocatable object instead of an executable")
	runCmd.Flags().Int("opt", 2, "optimization level (0-3)")
	runCmd.Flags().Bool("emit-llvm", false, "keep a textual rendering of the optimized IR")
	runCmd.Flags().Bool("print-ast", false, "print the typed tree and stop")
	runCmd.Flags().Bool("print-ir", false, "print the emitted IR and stop")
	runCmd.Flags().Bool("print-commands", false, "print external tool invocations")
	runCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	runCmd.Flags().StringP("output", "o", "", "output name (defaults to the package or module name)")
}

func runExecution(cmd *cobra.Command, args []string) error {
	programArgs := []string{}
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		programArgs = args[dash:]
		args = args[:dash]
	}
	if len(args) > 1 {
		return fmt.Errorf("run accepts at most one program file")
	}

	req, opts, err := prepareBuild(cmd, args)
	if err != nil {
		return err
	}
	if opts.printAST || opts.printIR {
		return runDumpMode(cmd, req, opts)
	}
	if req.Mode == llvm.ModeLibrary {
		return fmt.Errorf("--lib cannot be combined with run")
	}
	req.Run = true
	req.RunArgs = programArgs

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	quiet := beQuiet(cmd)

	var buildRes buildpipeline.BuildResult
	if opts.useTUI {
		buildRes, err = runBuildWithUI(cmd.Context(), "mmlc run", req)
	} else {
		buildRes, err = buildpipeline.Build(cmd.Context(), req)
	}
	if !quiet {
		for _, warning := range buildRes.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
		}
	}
	if err != nil {
		// The program's own exit status is propagated, not treated as a
		// compiler failure message.
		var staged *buildpipeline.StageError
		if errors.As(err, &staged) && staged.Stage == buildpipeline.StageRun {
			os.Exit(buildRes.ExitCode)
		}
		return err
	}
	if showTimings {
		printStageTimings(os.Stdout, buildRes.Timings, true)
	}
	return nil
}
