package main

import (
	"time"

	"github.com/spf13/cobra"

	"shaderbuild/internal/logging"
	"shaderbuild/internal/shader"
	"shaderbuild/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		debounce  time.Duration
		skipFirst bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Compile all shaders, then recompile them as they change",
		Long: `Compiles every shader once, then watches the shader directory and
recompiles sources when they are written. Changing a varying.def.sc
recompiles every shader that uses it. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			if !skipFirst {
				results, err := orch.BuildAll(ctx)
				if err != nil {
					return &ExitError{Code: exitFailed, Err: err}
				}
				a.console.Summary(shader.Summarize(results))
			}

			w, err := watch.New(orch, watch.Options{
				Debounce: debounce,
				OnBuild: func(results []shader.Result) {
					a.console.Summary(shader.Summarize(results))
				},
			})
			if err != nil {
				return &ExitError{Code: exitFailed, Err: err}
			}

			logging.Boot("Watching %s", a.layout.ShaderRoot)
			if err := w.Run(ctx); err != nil {
				return &ExitError{Code: exitFailed, Err: err}
			}

			stats := w.Stats()
			logging.Boot("Watch stopped: %d rebuild(s), %d compiled, %d failed", stats.Batches, stats.Compiled, stats.Failed)
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a changed file is rebuilt")
	cmd.Flags().BoolVar(&skipFirst, "no-initial-build", false, "Skip compiling everything on startup")
	return cmd
}
