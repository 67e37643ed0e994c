package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"shaderbuild/internal/shader"
	"shaderbuild/internal/tactile"
)

func TestConsoleCompilingAndSuccess(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Compiling(shader.Plan{Source: shader.NewSourceFile("/ws/assets/shaders/a.vs.sc")})
	c.Finished(shader.Result{
		Kind:           shader.KindSuccess,
		Source:         "a.vs.sc",
		Output:         "/ws/build/shaders/a.vs.sc",
		CompilerOutput: "noise\n",
	})

	want := " - Compiling '/ws/assets/shaders/a.vs.sc'\n" +
		" - Shader compiled: /ws/build/shaders/a.vs.sc\n"
	assert.Equal(t, want, buf.String())
}

func TestConsoleVerboseEchoesCompilerOutput(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Finished(shader.Result{Kind: shader.KindSuccess, Output: "out", CompilerOutput: "line one\nline two\n"})

	assert.Contains(t, buf.String(), "   line one\n   line two\n")
}

func TestConsoleWarningsHint(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Finished(shader.Result{
		Kind:        shader.KindSuccess,
		Output:      "out",
		Diagnostics: []tactile.Diagnostic{{Severity: "warning"}, {Severity: "warning"}},
	})

	assert.Contains(t, buf.String(), "2 warning(s)")
}

func TestConsoleFailure(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Finished(shader.Result{
		Kind:           shader.KindCompileFailure,
		Source:         "a.fs.sc",
		ExitCode:       1,
		CompilerOutput: "a.fs.sc(3): error: bad token\n",
		Err:            errors.New("compiler exited with status 1"),
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[ERROR] Failed to compile 'a.fs.sc': compiler exited with status 1\n"), out)
	assert.Contains(t, out, "   a.fs.sc(3): error: bad token\n")
}

func TestConsoleUnresolved(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Unresolved(&shader.ResolutionError{Pattern: "missing.vs.sc", Err: shader.ErrNotFound})
	assert.Equal(t, "[ERROR] File 'missing.vs.sc' not found.\n", buf.String())

	buf.Reset()
	c.Unresolved(&shader.ResolutionError{
		Pattern: "**/b.vs.sc",
		Matches: []string{"/r/x/b.vs.sc", "/r/y/b.vs.sc"},
		Err:     shader.ErrAmbiguous,
	})
	out := buf.String()
	assert.Contains(t, out, "[ERROR] Shader name is ambiguous")
	assert.Contains(t, out, "   /r/x/b.vs.sc\n")
	assert.Contains(t, out, "   /r/y/b.vs.sc\n")
}

func TestConsoleSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Summary(shader.Summary{Succeeded: 3})
	c.Summary(shader.Summary{Succeeded: 1, Failed: 1, Unresolved: 1})

	assert.Equal(t, "3 compiled, 0 failed\n1 compiled, 1 failed, 1 unresolved\n", buf.String())
}

func TestConsoleDryRunAndListing(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	plan := shader.Plan{
		Source:     shader.NewSourceFile("/ws/assets/shaders/sky/sky.vs.sc"),
		VaryingDef: "/ws/assets/shaders/varying.def.sc",
		Output:     "/ws/build/shaders/sky.vs.sc",
		Command: tactile.Command{
			Binary:    "/ws/tools/shaderc",
			Arguments: []string{"-f", "/ws/assets/shaders/sky/sky.vs.sc", "--type", "vertex"},
		},
	}

	c.DryRun(plan)
	assert.True(t, strings.HasPrefix(buf.String(), "[dry-run] /ws/tools/shaderc -f"), buf.String())

	buf.Reset()
	c.Listing("/ws/assets/shaders", []shader.Plan{plan})
	out := buf.String()
	assert.Contains(t, out, "vertex")
	assert.Contains(t, out, "sky/sky.vs.sc")
	assert.Contains(t, out, "varying: varying.def.sc")
	assert.Contains(t, out, "-> /ws/build/shaders/sky.vs.sc")
}

func TestConsoleStreamedOutputListsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	live := c.StreamOutput()
	_, err := live.Write([]byte("a.fs.sc(3,7): error: bad token\n"))
	assert.NoError(t, err)

	c.Finished(shader.Result{
		Kind:           shader.KindCompileFailure,
		Source:         "a.fs.sc",
		CompilerOutput: "a.fs.sc(3,7): error: bad token\n",
		Diagnostics:    []tactile.Diagnostic{{File: "a.fs.sc", Line: 3, Column: 7, Severity: "error", Message: "bad token"}},
		Err:            errors.New("compiler exited with status 1"),
	})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "a.fs.sc(3,7): error: bad token"), out)
	assert.Contains(t, out, "   a.fs.sc:3:7: error: bad token\n")
}
