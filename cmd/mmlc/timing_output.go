package main

import (
	"fmt"
	"io"
	"time"

	"mmlc/internal/buildpipeline"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, includeRun bool) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageEmit) {
		fmt.Fprintf(out, "emitted %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageEmit)))
	}
	built := timings.Sum(
		buildpipeline.StageAssemble,
		buildpipeline.StageRuntime,
		buildpipeline.StageOptimize,
		buildpipeline.StageDisasm,
		buildpipeline.StageCodegen,
		buildpipeline.StageLink,
		buildpipeline.StageObject,
	)
	if built > 0 {
		fmt.Fprintf(out, "built %.1f ms\n", toMillis(built))
	}
	if includeRun && timings.Has(buildpipeline.StageRun) {
		fmt.Fprintf(out, "ran %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageRun)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
