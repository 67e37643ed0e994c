package shader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shaderbuild/internal/logging"
	"shaderbuild/internal/tactile"
)

// Reporter receives progress for console output.
type Reporter interface {
	Compiling(plan Plan)
	Finished(result Result)
	Unresolved(err *ResolutionError)
}

// NopReporter discards all progress.
type NopReporter struct{}

func (NopReporter) Compiling(Plan) {}
func (NopReporter) Finished(Result) {}
func (NopReporter) Unresolved(*ResolutionError) {}

// Invoker runs planned compilations.
type Invoker struct {
	executor tactile.Executor
	reporter Reporter
	analyzer *tactile.OutputAnalyzer
}

// NewInvoker returns an invoker. A nil reporter discards progress.
func NewInvoker(executor tactile.Executor, reporter Reporter) *Invoker {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Invoker{executor: executor, reporter: reporter, analyzer: tactile.NewOutputAnalyzer()}
}

// Run compiles one plan synchronously. Failures never panic or return an
// error: they come back as a KindCompileFailure result.
func (i *Invoker) Run(ctx context.Context, plan Plan, options string) Result {
	i.reporter.Compiling(plan)

	result := Result{
		Kind:       KindCompileFailure,
		Source:     plan.Source.Leaf(),
		SourcePath: plan.Source.Path,
		Output:     plan.Output,
		Stage:      plan.Source.Stage,
		VaryingDef: plan.VaryingDef,
		Options:    options,
		ExitCode:   -1,
	}

	if err := os.MkdirAll(filepath.Dir(plan.Output), 0755); err != nil {
		result.Err = fmt.Errorf("failed to create output directory: %w", err)
		return i.finish(result)
	}

	exec, err := i.executor.Execute(ctx, plan.Command)
	if err != nil {
		result.Err = err
		return i.finish(result)
	}

	result.ExitCode = exec.ExitCode
	result.CompilerOutput = exec.Output()
	result.Duration = exec.Duration
	if result.CompilerOutput != "" {
		result.Diagnostics = i.analyzer.AnalyzeBuildOutput(result.CompilerOutput).Diagnostics
	}
	if ru := exec.ResourceUsage; ru != nil {
		logging.CompileDebug("%s used %dms CPU, %d bytes peak RSS", result.Source, ru.TotalCPUTimeMs(), ru.MaxRSSBytes)
	}

	switch {
	case exec.Succeeded():
		result.Kind = KindSuccess
	case exec.IsError():
		msg := exec.Error
		if msg == "" {
			msg = "compiler did not run"
		}
		result.Err = errors.New(msg)
	case exec.Killed:
		result.Err = fmt.Errorf("%w: %s", errKilled, exec.KillReason)
	case exec.IsNonZeroExit():
		result.Err = fmt.Errorf("compiler exited with status %d", exec.ExitCode)
	}
	return i.finish(result)
}

func (i *Invoker) finish(result Result) Result {
	if result.OK() {
		logging.Compile("Compiled %s -> %s (%s)", result.Source, result.Output, result.Duration)
	} else {
		logging.CompileWarn("Failed to compile %s: %v", result.Source, result.Err)
	}
	i.reporter.Finished(result)
	return result
}
