package shader

import (
	"context"
	"errors"

	"shaderbuild/internal/config"
	"shaderbuild/internal/logging"
	"shaderbuild/internal/tactile"
)

// Request is a single build invocation: either every shader, or the one
// matching Name. Options holds the extra CLI tokens; it is kept on the
// results but does not influence the compiler command.
type Request struct {
	All     bool
	Name    string
	Options string
}

// Orchestrator resolves, plans and compiles shaders one at a time.
type Orchestrator struct {
	layout   *config.Layout
	resolver *Resolver
	builder  *CommandBuilder
	invoker  *Invoker
	reporter Reporter
}

// NewOrchestrator wires the components for layout.
func NewOrchestrator(layout *config.Layout, executor tactile.Executor, reporter Reporter) *Orchestrator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Orchestrator{
		layout:   layout,
		resolver: NewResolver(layout.ShaderRoot, layout.Extensions),
		builder:  NewCommandBuilder(layout),
		invoker:  NewInvoker(executor, reporter),
		reporter: reporter,
	}
}

// Resolver exposes the resolver, used by the watcher to filter events.
func (o *Orchestrator) Resolver() *Resolver {
	return o.resolver
}

// Layout returns the layout the orchestrator was built with.
func (o *Orchestrator) Layout() *config.Layout {
	return o.layout
}

// Execute dispatches a request. All takes precedence over Name.
func (o *Orchestrator) Execute(ctx context.Context, req Request) ([]Result, error) {
	switch {
	case req.All:
		return o.BuildAll(ctx)
	case req.Name != "":
		return o.BuildOne(ctx, req.Name, req.Options)
	default:
		return nil, ErrEmptyRequest
	}
}

// BuildOne compiles the single shader matching name. A pattern that matches
// zero or several files returns a *ResolutionError and no results.
func (o *Orchestrator) BuildOne(ctx context.Context, name, options string) ([]Result, error) {
	paths, err := o.resolver.ResolveOne(name)
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			o.reporter.Unresolved(resErr)
		}
		return nil, err
	}
	if options != "" {
		logging.CompileDebug("Options %q accepted for %s (not forwarded to the compiler)", options, name)
	}
	return o.BuildPaths(ctx, paths, options)
}

// BuildAll compiles every recognized shader under the root. A failing file
// does not stop the others.
func (o *Orchestrator) BuildAll(ctx context.Context) ([]Result, error) {
	paths, err := o.resolver.ResolveAll()
	if err != nil {
		return nil, err
	}
	return o.BuildPaths(ctx, paths, "")
}

// BuildPaths compiles the given sources in order. It stops early only when
// ctx is cancelled, returning the results gathered so far.
func (o *Orchestrator) BuildPaths(ctx context.Context, paths []string, options string) ([]Result, error) {
	timer := logging.StartTimer(logging.CategoryCompile, "Shader build")
	defer timer.Stop()

	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		plan := o.builder.Build(p, o.layout.BuildDir)
		results = append(results, o.invoker.Run(ctx, plan, options))
	}
	return results, nil
}

// Plan resolves a request and returns the compilations it would run.
func (o *Orchestrator) Plan(req Request) ([]Plan, error) {
	var (
		paths []string
		err   error
	)
	switch {
	case req.All:
		paths, err = o.resolver.ResolveAll()
	case req.Name != "":
		paths, err = o.resolver.ResolveOne(req.Name)
	default:
		return nil, ErrEmptyRequest
	}
	if err != nil {
		return nil, err
	}

	plans := make([]Plan, 0, len(paths))
	for _, p := range paths {
		plans = append(plans, o.builder.Build(p, o.layout.BuildDir))
	}
	return plans, nil
}
