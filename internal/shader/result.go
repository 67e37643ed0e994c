package shader

import (
	"errors"
	"time"

	"shaderbuild/internal/tactile"
)

// Kind tags the outcome of a build request.
type Kind int

const (
	KindSuccess Kind = iota
	KindResolutionError
	KindCompileFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindResolutionError:
		return "resolution_error"
	case KindCompileFailure:
		return "compile_failure"
	default:
		return "unknown"
	}
}

// Result is the outcome for one shader. Compiled files always yield
// KindSuccess or KindCompileFailure; KindResolutionError only appears in
// results built with Unresolved.
type Result struct {
	Kind       Kind
	Source     string // leaf filename, or the pattern for resolution errors
	SourcePath string
	Output     string
	Stage      Stage
	VaryingDef string
	Options    string // carried from the request; not used to build the command

	ExitCode       int
	CompilerOutput string
	Diagnostics    []tactile.Diagnostic
	Duration       time.Duration

	// Err explains a failure: a *ResolutionError, an infrastructure error
	// such as a missing compiler, or the kill reason.
	Err error
}

// OK reports whether the shader compiled.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// Unresolved wraps a resolution failure as a Result.
func Unresolved(err *ResolutionError) Result {
	return Result{
		Kind:     KindResolutionError,
		Source:   err.Pattern,
		ExitCode: -1,
		Err:      err,
	}
}

// Summary counts results by kind.
type Summary struct {
	Succeeded  int
	Failed     int
	Unresolved int
}

// Summarize counts results by kind.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Kind {
		case KindSuccess:
			s.Succeeded++
		case KindCompileFailure:
			s.Failed++
		case KindResolutionError:
			s.Unresolved++
		}
	}
	return s
}

// AllOK reports whether nothing failed.
func (s Summary) AllOK() bool {
	return s.Failed == 0 && s.Unresolved == 0
}

// errKilled is used when the compiler was killed without an infrastructure error.
var errKilled = errors.New("compiler was killed")
