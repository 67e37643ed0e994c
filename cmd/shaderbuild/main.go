package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"shaderbuild/cmd/shaderbuild/ui"
	"shaderbuild/internal/config"
	"shaderbuild/internal/logging"
	"shaderbuild/internal/shader"
	"shaderbuild/internal/tactile"
)

// Exit statuses.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// ExitError carries a process exit status out of a command. A nil Err means
// the failure was already reported.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Err: err}
}

// app holds flag values and everything built from them in PersistentPreRunE.
type app struct {
	// Global flags
	configPath string
	workspace  string
	verbose    bool
	platform   string

	// Build flags
	shaderName string
	all        bool
	dryRun     bool

	layout  *config.Layout
	console *ui.Console
	audit   *tactile.AuditLogger
}

func newRootCmd(stdout io.Writer) (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "shaderbuild",
		Short: "Compile bgfx shader sources with shaderc",
		Long: `shaderbuild compiles .sc shader sources found under the project's shader
directory into the build directory using bgfx's shaderc.

The pipeline stage comes from the file name (a.vs.sc is a vertex shader,
a.fs.sc a fragment shader). A varying.def.sc next to the source is used when
present, otherwise the one at the root of the shader directory.

Examples:
  shaderbuild --all
  shaderbuild --shader cubes.vs.sc
  shaderbuild -s "**/water.fs.sc"
  shaderbuild list`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: a.runBuild,
	}
	rootCmd.SetOut(stdout)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: <workspace>/"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().StringVarP(&a.workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging and compiler output")
	rootCmd.PersistentFlags().StringVar(&a.platform, "platform", "", "Target platform passed to shaderc (default: host)")

	rootCmd.Flags().StringVarP(&a.shaderName, "shader", "s", "", "Compile the shader matching this name or glob; further arguments are kept as options")
	rootCmd.Flags().BoolVarP(&a.all, "all", "a", false, "Compile all available shaders")
	rootCmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Print the compiler commands without running them")

	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))

	return rootCmd, a
}

// setup loads the config, initializes logging and resolves the layout.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = filepath.Join(a.workspace, config.DefaultFileName)
	} else if _, err := os.Stat(path); err != nil {
		return usageError(fmt.Errorf("config file: %w", err))
	}

	cfg, err := config.Load(path)
	if err != nil {
		return usageError(err)
	}
	if a.platform != "" {
		cfg.Compiler.Platform = a.platform
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	if err := logging.Initialize(cfg.Logging.Options()); err != nil {
		return usageError(err)
	}
	logging.BootDebug("Command %q, config %s", cmd.CommandPath(), path)

	a.layout, err = cfg.Resolve(a.workspace)
	if err != nil {
		return usageError(err)
	}
	a.console = ui.NewConsole(cmd.OutOrStdout(), a.verbose)
	return nil
}

// teardown runs whether or not the command failed.
func (a *app) teardown() {
	if a.audit != nil {
		if m := a.audit.GetMetrics(); m.TotalExecutions > 0 {
			logging.TactileDebug("Executions: %d total, %d failed, %d killed, avg %.0fms, failures by stage %v",
				m.TotalExecutions, m.FailedExecutions, m.KilledExecutions, m.AvgDurationMs, m.FailuresByStage)
		}
		if err := a.audit.Close(); err != nil {
			logging.Get(logging.CategoryTactile).Error("Failed to close audit log: %v", err)
		}
	}
	logging.Sync()
}

// orchestrator builds the compiler pipeline for the resolved layout.
func (a *app) orchestrator() (*shader.Orchestrator, error) {
	a.audit = tactile.NewAuditLogger()
	a.audit.AddCallback(func(e tactile.AuditEvent) {
		logging.TactileDebug("%s %s [%s]", e.Type, e.Command.Tags["shader"], e.Command.RequestID)
	})
	if a.layout.AuditFile != "" {
		if err := a.audit.EnableFileLogging(a.layout.AuditFile); err != nil {
			return nil, usageError(err)
		}
	}

	execCfg := tactile.DefaultExecutorConfig()
	execCfg.DefaultWorkingDir = a.layout.Workspace
	execCfg.EnableResourceUsage = a.verbose
	execCfg.AllowedEnvironment = a.layout.PassEnv
	if a.verbose {
		execCfg.Tee = a.console.StreamOutput()
	}
	executor := tactile.NewAuditedExecutor(tactile.NewDirectExecutorWithConfig(execCfg), a.audit)

	return shader.NewOrchestrator(a.layout, executor, a.console), nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, a := newRootCmd(stdout)
	defer a.teardown()
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, "Error:", exitErr.Err)
		}
		return exitErr.Code
	}

	// Flag parsing and other cobra errors.
	fmt.Fprintln(stderr, "Error:", err)
	fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
	return exitUsage
}
