package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"shaderbuild/internal/shader"
)

// Console prints build progress as styled lines. It implements
// shader.Reporter.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	styles   Styles
	verbose  bool
	streamed bool
}

// NewConsole returns a reporter writing to out. Verbose also echoes the
// compiler's output for successful builds.
func NewConsole(out io.Writer, verbose bool) *Console {
	return &Console{out: out, styles: StylesFor(out), verbose: verbose}
}

// StreamOutput returns a writer for live compiler output. Once it has been
// handed out, finished results list parsed diagnostics instead of repeating
// the raw output.
func (c *Console) StreamOutput() io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamed = true
	return consoleWriter{c}
}

type consoleWriter struct{ c *Console }

func (w consoleWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.out.Write(p)
}

// Compiling prints the line announcing a compilation.
func (c *Console) Compiling(plan shader.Plan) {
	c.printf(" - Compiling %s\n", c.styles.Underline.Render("'"+plan.Source.Path+"'"))
}

// Finished prints the outcome of a compilation.
func (c *Console) Finished(res shader.Result) {
	if res.OK() {
		c.printf(" %s\n", c.styles.Success.Render("- Shader compiled: "+res.Output))
		if n := countWarnings(res); n > 0 && !c.verbose {
			c.printf("   %s\n", c.styles.Warning.Render(fmt.Sprintf("%d warning(s), rerun with --verbose to see them", n)))
		}
		if c.verbose {
			c.printResultOutput(res)
		}
		return
	}

	c.printf("%s Failed to compile '%s': %v\n", c.errorTag(), res.Source, res.Err)
	c.printResultOutput(res)
}

// Unresolved prints a resolution failure.
func (c *Console) Unresolved(err *shader.ResolutionError) {
	c.printf("%s %s.\n", c.errorTag(), capitalize(err.Error()))
	for _, m := range err.Matches {
		c.printf("   %s\n", c.styles.Muted.Render(m))
	}
}

// Summary prints the closing tally for a multi-file build.
func (c *Console) Summary(sum shader.Summary) {
	line := fmt.Sprintf("%d compiled, %d failed", sum.Succeeded, sum.Failed)
	if sum.Unresolved > 0 {
		line += fmt.Sprintf(", %d unresolved", sum.Unresolved)
	}
	if sum.AllOK() {
		c.printf("%s\n", c.styles.Success.Render(line))
		return
	}
	c.printf("%s\n", c.styles.Error.Render(line))
}

// DryRun prints the command a plan would run.
func (c *Console) DryRun(plan shader.Plan) {
	c.printf("%s %s\n", c.styles.Info.Render("[dry-run]"), plan.Command.CommandString())
}

// Listing prints one line per planned shader, paths relative to root where
// possible.
func (c *Console) Listing(root string, plans []shader.Plan) {
	for _, p := range plans {
		c.printf("%-9s %s  %s %s  %s %s\n",
			c.styles.Bold.Render(string(p.Source.Stage)),
			rel(root, p.Source.Path),
			c.styles.Muted.Render("varying:"), rel(root, p.VaryingDef),
			c.styles.Muted.Render("->"), p.Output)
	}
}

// Warn prints a warning line.
func (c *Console) Warn(format string, args ...interface{}) {
	c.printf("%s %s\n", c.styles.Warning.Render("[WARN]"), fmt.Sprintf(format, args...))
}

func countWarnings(res shader.Result) int {
	n := 0
	for _, d := range res.Diagnostics {
		if d.Severity == "warning" {
			n++
		}
	}
	return n
}

func (c *Console) errorTag() string {
	return c.styles.Error.Render("[ERROR]")
}

func (c *Console) printResultOutput(res shader.Result) {
	c.mu.Lock()
	streamed := c.streamed
	c.mu.Unlock()
	if !streamed {
		c.printOutput(res.CompilerOutput)
		return
	}
	for _, d := range res.Diagnostics {
		style := c.styles.Muted
		switch d.Severity {
		case "error":
			style = c.styles.Error
		case "warning":
			style = c.styles.Warning
		}
		c.printf("   %s\n", style.Render(d.String()))
	}
}

func (c *Console) printOutput(out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}
	for _, line := range strings.Split(out, "\n") {
		c.printf("   %s\n", c.styles.Muted.Render(line))
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func rel(root, p string) string {
	if r, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return p
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
