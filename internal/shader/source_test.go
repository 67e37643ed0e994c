package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageOf(t *testing.T) {
	tests := []struct {
		path string
		want Stage
	}{
		{"a.vs.sc", StageVertex},
		{"a.fs.sc", StageFragment},
		{"a.cs.sc", StageCompute},
		{"/root/assets/shaders/sky/sky.vs.sc", StageVertex},
		{"/root/assets/shaders/sky.vs/sky.fs.sc", StageFragment},
		{"noext", StageFragment},
		{"weird.xx.sc", StageFragment},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := StageOf(tt.path); got != tt.want {
				t.Errorf("StageOf(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	dest := filepath.Join("build", "shaders")
	assert.Equal(t, filepath.Join(dest, "a.vs.sc"), OutputPath(filepath.Join("x", "a.vs.sc"), dest))
	assert.Equal(t, filepath.Join(dest, "a.vs.sc"), OutputPath(filepath.Join("x", "y", "z", "a.vs.sc"), dest),
		"nested sources land flat in the build directory")
}

func TestVaryingDefFor(t *testing.T) {
	root := t.TempDir()
	def := touch(t, root, "varying.def.sc")
	flat := touch(t, root, "a.vs.sc")
	nested := touch(t, root, "water", "water.vs.sc")
	local := touch(t, root, "water", "varying.def.sc")
	bare := touch(t, root, "sky", "sky.fs.sc")

	assert.Equal(t, def, VaryingDefFor(flat, "varying.def.sc", def))
	assert.Equal(t, local, VaryingDefFor(nested, "varying.def.sc", def))
	assert.Equal(t, def, VaryingDefFor(bare, "varying.def.sc", def))
}

func TestVaryingDefForIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	src := touch(t, root, "fx", "glow.fs.sc")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fx", "varying.def.sc"), 0755))

	def := filepath.Join(root, "varying.def.sc")
	assert.Equal(t, def, VaryingDefFor(src, "varying.def.sc", def))
}

func TestSourceFile(t *testing.T) {
	p := filepath.Join("a", "b", "c.vs.sc")
	src := NewSourceFile(p)
	assert.Equal(t, "c.vs.sc", src.Leaf())
	assert.Equal(t, filepath.Join("a", "b"), src.Dir)
	assert.Equal(t, StageVertex, src.Stage)
}
