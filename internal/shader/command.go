package shader

import (
	"os"

	"shaderbuild/internal/config"
	"shaderbuild/internal/logging"
	"shaderbuild/internal/tactile"
)

// Plan is everything needed to compile one source file.
type Plan struct {
	Source     SourceFile
	VaryingDef string
	Output     string
	Command    tactile.Command
}

// CommandBuilder assembles compiler invocations from a Layout.
type CommandBuilder struct {
	layout *config.Layout
}

// NewCommandBuilder returns a builder for layout.
func NewCommandBuilder(layout *config.Layout) *CommandBuilder {
	return &CommandBuilder{layout: layout}
}

// Build plans the compilation of sourcePath into destDir. It only inspects
// the filesystem to look for a co-located varying definition.
func (b *CommandBuilder) Build(sourcePath, destDir string) Plan {
	src := NewSourceFile(sourcePath)
	varying := VaryingDefFor(sourcePath, b.layout.VaryingDefName, b.layout.DefaultVaryingDef)
	output := OutputPath(sourcePath, destDir)

	if varying == b.layout.DefaultVaryingDef {
		if _, err := os.Stat(varying); err != nil {
			logging.CompileWarn("No varying definition for %s (default %s: %v)", src.Leaf(), varying, err)
		}
	}

	args := []string{
		"-f", sourcePath,
		"-o", output,
		"-i", b.layout.IncludeDir,
		"--varyingdef", varying,
		"--platform", b.layout.Platform,
		"--type", string(src.Stage),
	}
	args = append(args, b.layout.ExtraArgs...)

	logging.CompileDebug("Planned %s: stage=%s varying=%s output=%s", src.Leaf(), src.Stage, varying, output)

	return Plan{
		Source:     src,
		VaryingDef: varying,
		Output:     output,
		Command: tactile.Command{
			Binary:           b.layout.CompilerPath,
			Arguments:        args,
			WorkingDirectory: b.layout.Workspace,
			Environment:      b.layout.Env,
			Timeout:          b.layout.Timeout,
			Tags: map[string]string{
				"shader": src.Leaf(),
				"stage":  string(src.Stage),
			},
		},
	}
}
