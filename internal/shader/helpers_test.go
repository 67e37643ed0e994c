package shader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"shaderbuild/internal/config"
	"shaderbuild/internal/tactile"
)

// fakeExecutor stands in for shaderc. Shaders listed in exitCodes exit with
// that status; everything else "compiles" by writing the -o file.
type fakeExecutor struct {
	mu        sync.Mutex
	calls     []tactile.Command
	exitCodes map[string]int
	infraErr  string
	execErr   error
	onExecute func()
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	hook := f.onExecute
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.infraErr != "" {
		return &tactile.ExecutionResult{Success: false, ExitCode: -1, Error: f.infraErr, Command: &cmd}, nil
	}

	code := f.exitCodes[cmd.Tags["shader"]]
	res := &tactile.ExecutionResult{Success: true, ExitCode: code, Command: &cmd}
	if code != 0 {
		res.Stderr = cmd.Tags["shader"] + "(3): error: syntax error\n"
		return res, nil
	}
	if out := argAfter(cmd.Arguments, "-o"); out != "" {
		if err := os.WriteFile(out, []byte("compiled"), 0644); err != nil {
			return nil, err
		}
	}
	res.Stdout = "ok\n"
	return res, nil
}

func (f *fakeExecutor) Capabilities() tactile.ExecutorCapabilities {
	return tactile.ExecutorCapabilities{Name: "fake"}
}

func (f *fakeExecutor) Validate(cmd tactile.Command) error { return nil }

func (f *fakeExecutor) Calls() []tactile.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tactile.Command(nil), f.calls...)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// recordingReporter keeps every callback for assertions.
type recordingReporter struct {
	compiling  []Plan
	finished   []Result
	unresolved []*ResolutionError
}

func (r *recordingReporter) Compiling(p Plan) { r.compiling = append(r.compiling, p) }
func (r *recordingReporter) Finished(res Result) { r.finished = append(r.finished, res) }
func (r *recordingReporter) Unresolved(err *ResolutionError) { r.unresolved = append(r.unresolved, err) }

// newLayout builds a default layout in a fresh workspace with the shader
// root created.
func newLayout(t *testing.T) *config.Layout {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Compiler.Platform = "linux"
	layout, err := cfg.Resolve(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(layout.ShaderRoot, 0755))
	return layout
}

// touch creates a file (and its parents) under root.
func touch(t *testing.T, root string, rel ...string) string {
	t.Helper()
	path := filepath.Join(append([]string{root}, rel...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("// shader\n"), 0644))
	return path
}
