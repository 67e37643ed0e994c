package shader

import (
	"os"
	"path/filepath"
)

// SourceFile is a shader source resolved for compilation.
type SourceFile struct {
	Path  string // absolute path
	Dir   string // containing directory
	Stage Stage
}

// NewSourceFile describes the source at path.
func NewSourceFile(path string) SourceFile {
	return SourceFile{
		Path:  path,
		Dir:   filepath.Dir(path),
		Stage: StageOf(path),
	}
}

// Leaf returns the file name without its directory.
func (s SourceFile) Leaf() string {
	return filepath.Base(s.Path)
}

// OutputPath is <destDir>/<leaf>, independent of how deep the source sits.
func OutputPath(sourcePath, destDir string) string {
	return filepath.Join(destDir, filepath.Base(sourcePath))
}

// VaryingDefFor returns the varying definition that applies to the source:
// a regular file named name next to it, else defaultPath.
func VaryingDefFor(sourcePath, name, defaultPath string) string {
	local := filepath.Join(filepath.Dir(sourcePath), name)
	if info, err := os.Stat(local); err == nil && info.Mode().IsRegular() {
		return local
	}
	return defaultPath
}
