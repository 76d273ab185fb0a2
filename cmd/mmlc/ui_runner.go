package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mmlc/internal/backend/llvm"
	"mmlc/internal/buildpipeline"
	"mmlc/internal/ui"
)

type buildOutcome struct {
	result buildpipeline.BuildResult
	err    error
}

// pipelineStages lists the stage rows the progress view shows for a request.
func pipelineStages(req *buildpipeline.BuildRequest) []buildpipeline.Stage {
	stages := []buildpipeline.Stage{
		buildpipeline.StageEmit,
		buildpipeline.StageAssemble,
		buildpipeline.StageRuntime,
		buildpipeline.StageOptimize,
	}
	if req.EmitLLVM {
		stages = append(stages, buildpipeline.StageDisasm)
	}
	stages = append(stages, buildpipeline.StageCodegen)
	if req.Mode == llvm.ModeLibrary {
		stages = append(stages, buildpipeline.StageObject)
	} else {
		stages = append(stages, buildpipeline.StageLink)
	}
	if req.Run {
		stages = append(stages, buildpipeline.StageRun)
	}
	return stages
}

func runBuildWithUI(ctx context.Context, title string, req *buildpipeline.BuildRequest) (buildpipeline.BuildResult, error) {
	if req == nil {
		return buildpipeline.BuildResult{}, fmt.Errorf("missing build request")
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Build(ctx, &reqCopy)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, pipelineStages(req), events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
