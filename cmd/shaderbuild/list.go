package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shaderbuild/internal/shader"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [pattern]",
		Short: "List shaders with their stage, varying definition and output",
		Long: `Lists the shader sources that would be compiled, without running shaderc.
With a pattern, only the single matching shader is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			req := shader.Request{All: true}
			if len(args) == 1 {
				req = shader.Request{Name: args[0]}
			}

			plans, err := orch.Plan(req)
			if err != nil {
				var resErr *shader.ResolutionError
				if errors.As(err, &resErr) {
					a.console.Unresolved(resErr)
					return &ExitError{Code: exitFailed}
				}
				return &ExitError{Code: exitFailed, Err: err}
			}

			if a.verbose {
				fmt.Fprint(cmd.OutOrStdout(), a.layout.String())
				fmt.Fprintln(cmd.OutOrStdout())
			}
			a.console.Listing(a.layout.ShaderRoot, plans)
			return nil
		},
	}
}
