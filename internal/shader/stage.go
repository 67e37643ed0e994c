package shader

import (
	"path/filepath"
	"strings"
)

// Stage is the pipeline stage passed to the compiler with --type.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
	StageCompute  Stage = "compute"
)

// StageOf derives the stage from the second dot-separated segment of the
// file's leaf name: "a.vs.sc" is vertex, "a.fs.sc" fragment, "a.cs.sc"
// compute. Anything else compiles as a fragment shader.
func StageOf(path string) Stage {
	parts := strings.Split(filepath.Base(path), ".")
	if len(parts) < 2 {
		return StageFragment
	}
	switch parts[1] {
	case "vs":
		return StageVertex
	case "cs":
		return StageCompute
	default:
		return StageFragment
	}
}
