package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"shaderbuild/internal/logging"
	"shaderbuild/internal/shader"
)

// runBuild handles the root command: --all, --shader or help.
func (a *app) runBuild(cmd *cobra.Command, args []string) error {
	req := shader.Request{
		All:     a.all,
		Name:    a.shaderName,
		Options: strings.Join(args, " "),
	}
	if !req.All && req.Name == "" {
		if len(args) > 0 {
			return usageError(errors.New("unexpected arguments without --shader: " + req.Options))
		}
		return cmd.Help()
	}
	if req.All && len(args) > 0 {
		logging.BootDebug("Ignoring options %q with --all", req.Options)
		req.Options = ""
	}

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	if a.dryRun {
		return a.dryRunBuild(orch, req)
	}
	return a.build(cmd.Context(), orch, req)
}

func (a *app) build(ctx context.Context, orch *shader.Orchestrator, req shader.Request) error {
	results, err := orch.Execute(ctx, req)

	var resErr *shader.ResolutionError
	switch {
	case errors.As(err, &resErr):
		// reported by the console
		return &ExitError{Code: exitFailed}
	case errors.Is(err, context.Canceled):
		a.console.Warn("Interrupted after %d shader(s)", len(results))
		a.console.Summary(shader.Summarize(results))
		return &ExitError{Code: exitFailed}
	case err != nil:
		return &ExitError{Code: exitFailed, Err: err}
	}

	sum := shader.Summarize(results)
	if req.All {
		if len(results) == 0 {
			a.console.Warn("No shaders found under %s", a.layout.ShaderRoot)
		}
		a.console.Summary(sum)
	}
	logging.Boot("Build finished: %d compiled, %d failed", sum.Succeeded, sum.Failed)

	if !sum.AllOK() {
		return &ExitError{Code: exitFailed}
	}
	return nil
}

func (a *app) dryRunBuild(orch *shader.Orchestrator, req shader.Request) error {
	plans, err := orch.Plan(req)
	if err != nil {
		var resErr *shader.ResolutionError
		if errors.As(err, &resErr) {
			a.console.Unresolved(resErr)
			return &ExitError{Code: exitFailed}
		}
		return &ExitError{Code: exitFailed, Err: err}
	}
	for _, p := range plans {
		a.console.DryRun(p)
	}
	return nil
}
