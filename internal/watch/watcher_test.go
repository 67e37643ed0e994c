package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"shaderbuild/internal/config"
	"shaderbuild/internal/shader"
	"shaderbuild/internal/tactile"
)

// okExecutor pretends every compilation succeeds.
type okExecutor struct{}

func (okExecutor) Execute(ctx context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	return &tactile.ExecutionResult{Success: true, Command: &cmd}, nil
}

func (okExecutor) Capabilities() tactile.ExecutorCapabilities {
	return tactile.ExecutorCapabilities{Name: "ok"}
}

func (okExecutor) Validate(tactile.Command) error { return nil }

type harness struct {
	layout  *config.Layout
	watcher *Watcher
	builds  chan []string
	cancel  context.CancelFunc
	done    chan error
}

func startWatcher(t *testing.T, files ...string) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Compiler.Platform = "linux"
	layout, err := cfg.Resolve(t.TempDir())
	require.NoError(t, err)
	for _, f := range files {
		write(t, filepath.Join(layout.ShaderRoot, f))
	}
	require.NoError(t, os.MkdirAll(layout.ShaderRoot, 0755))

	h := &harness{layout: layout, builds: make(chan []string, 16), done: make(chan error, 1)}
	orch := shader.NewOrchestrator(layout, okExecutor{}, nil)
	h.watcher, err = New(orch, Options{
		Debounce: 50 * time.Millisecond,
		OnBuild: func(results []shader.Result) {
			var leaves []string
			for _, r := range results {
				leaves = append(leaves, r.Source)
			}
			sort.Strings(leaves)
			h.builds <- leaves
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.watcher.Run(ctx) }()

	select {
	case <-h.watcher.Ready():
	case err := <-h.done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func (h *harness) nextBuild(t *testing.T) []string {
	t.Helper()
	select {
	case b := <-h.builds:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild observed")
		return nil
	}
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(time.Now().String()), 0644))
}

func TestWatcherRebuildsChangedSource(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := startWatcher(t, "a.vs.sc", "a.fs.sc", "varying.def.sc")
	write(t, filepath.Join(h.layout.ShaderRoot, "a.vs.sc"))

	assert.Equal(t, []string{"a.vs.sc"}, h.nextBuild(t))
	h.stop(t)

	stats := h.watcher.Stats()
	assert.GreaterOrEqual(t, stats.Batches, 1)
	assert.GreaterOrEqual(t, stats.Compiled, 1)
}

func TestWatcherVaryingDefRebuildsDependents(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := startWatcher(t,
		"a.vs.sc", "a.fs.sc", "varying.def.sc",
		filepath.Join("water", "water.vs.sc"),
		filepath.Join("water", "varying.def.sc"),
	)

	write(t, filepath.Join(h.layout.ShaderRoot, "varying.def.sc"))
	assert.Equal(t, []string{"a.fs.sc", "a.vs.sc"}, h.nextBuild(t))

	write(t, filepath.Join(h.layout.ShaderRoot, "water", "varying.def.sc"))
	assert.Equal(t, []string{"water.vs.sc"}, h.nextBuild(t))

	h.stop(t)
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := startWatcher(t, "a.vs.sc")
	write(t, filepath.Join(h.layout.ShaderRoot, "fx", "glow.fs.sc"))

	assert.Equal(t, []string{"glow.fs.sc"}, h.nextBuild(t))
	h.stop(t)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := startWatcher(t, "a.vs.sc")
	write(t, filepath.Join(h.layout.ShaderRoot, "notes.txt"))
	write(t, filepath.Join(h.layout.ShaderRoot, "a.vs.sc"))

	assert.Equal(t, []string{"a.vs.sc"}, h.nextBuild(t))
	h.stop(t)
	assert.Equal(t, filepath.Join(h.layout.ShaderRoot, "a.vs.sc"), h.watcher.Stats().LastEventPath)
}

func TestWatcherMissingRoot(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.DefaultConfig()
	layout, err := cfg.Resolve(t.TempDir())
	require.NoError(t, err)

	w, err := New(shader.NewOrchestrator(layout, okExecutor{}, nil), Options{})
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() { errc <- w.Run(context.Background()) }()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("Ready was not closed after Run failed")
	}
	assert.Error(t, <-errc)
}
