package shader

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCommandBuilderArguments(t *testing.T) {
	layout := newLayout(t)
	src := touch(t, layout.ShaderRoot, "a.vs.sc")
	touch(t, layout.ShaderRoot, "varying.def.sc")

	plan := NewCommandBuilder(layout).Build(src, layout.BuildDir)

	want := []string{
		"-f", src,
		"-o", filepath.Join(layout.BuildDir, "a.vs.sc"),
		"-i", layout.IncludeDir,
		"--varyingdef", layout.DefaultVaryingDef,
		"--platform", "linux",
		"--type", "vertex",
	}
	if diff := cmp.Diff(want, plan.Command.Arguments); diff != "" {
		t.Errorf("arguments mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, layout.CompilerPath, plan.Command.Binary)
	assert.Equal(t, layout.Workspace, plan.Command.WorkingDirectory)
	assert.Equal(t, "a.vs.sc", plan.Command.Tags["shader"])
	assert.Equal(t, "vertex", plan.Command.Tags["stage"])
	assert.Equal(t, filepath.Join(layout.BuildDir, "a.vs.sc"), plan.Output)
	assert.Equal(t, layout.DefaultVaryingDef, plan.VaryingDef)
}

func TestCommandBuilderColocatedVaryingDef(t *testing.T) {
	layout := newLayout(t)
	src := touch(t, layout.ShaderRoot, "water", "water.fs.sc")
	local := touch(t, layout.ShaderRoot, "water", "varying.def.sc")

	plan := NewCommandBuilder(layout).Build(src, layout.BuildDir)

	assert.Equal(t, local, plan.VaryingDef)
	assert.Equal(t, local, argAfter(plan.Command.Arguments, "--varyingdef"))
	assert.Equal(t, "fragment", argAfter(plan.Command.Arguments, "--type"))
	assert.Equal(t, filepath.Join(layout.BuildDir, "water.fs.sc"), plan.Output)
}

func TestCommandBuilderMissingDefaultVaryingDef(t *testing.T) {
	layout := newLayout(t)
	src := touch(t, layout.ShaderRoot, "a.fs.sc")

	// The default is still passed; the compiler reports the problem.
	plan := NewCommandBuilder(layout).Build(src, layout.BuildDir)
	assert.Equal(t, layout.DefaultVaryingDef, plan.VaryingDef)
}

func TestCommandBuilderExtraArgsTimeoutAndEnv(t *testing.T) {
	layout := newLayout(t)
	layout.ExtraArgs = []string{"-O", "3", "--verbose"}
	layout.Timeout = 30 * time.Second
	layout.Env = []string{"SHADERC_CACHE=/tmp/cache"}
	src := touch(t, layout.ShaderRoot, "a.vs.sc")

	plan := NewCommandBuilder(layout).Build(src, layout.BuildDir)

	args := plan.Command.Arguments
	if diff := cmp.Diff([]string{"--type", "vertex", "-O", "3", "--verbose"}, args[len(args)-5:]); diff != "" {
		t.Errorf("trailing arguments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30*time.Second, plan.Command.Timeout)
	assert.Equal(t, []string{"SHADERC_CACHE=/tmp/cache"}, plan.Command.Environment)
}
