package shader

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"shaderbuild/internal/logging"
)

// Resolver finds shader sources under a root directory. Patterns use
// doublestar syntax: "*" stays inside one directory, "**" spans any depth
// including none. Files and directories whose names start with "." are only
// matched by a pattern that names them explicitly.
type Resolver struct {
	root       string
	extensions []string
}

// NewResolver returns a resolver for root recognizing the given extensions
// (without leading dots, e.g. "vs.sc").
func NewResolver(root string, extensions []string) *Resolver {
	return &Resolver{root: root, extensions: extensions}
}

// Root returns the shader root directory.
func (r *Resolver) Root() string {
	return r.root
}

// ResolveOne returns the single file matching pattern. Zero or several
// matches produce a *ResolutionError.
func (r *Resolver) ResolveOne(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, &ResolutionError{Pattern: pattern, Err: ErrNotFound}
	}

	matches, err := r.glob(pattern)
	if err != nil {
		return nil, err
	}
	logging.ResolveDebug("Pattern %q matched %d file(s)", pattern, len(matches))

	switch len(matches) {
	case 1:
		return matches, nil
	case 0:
		return nil, &ResolutionError{Pattern: pattern, Err: ErrNotFound}
	default:
		return nil, &ResolutionError{Pattern: pattern, Matches: matches, Err: ErrAmbiguous}
	}
}

// ResolveAll returns every file under the root carrying one of the
// configured extensions, grouped by extension in configuration order.
func (r *Resolver) ResolveAll() ([]string, error) {
	var all []string
	for _, ext := range r.extensions {
		matches, err := r.glob("**/*." + ext)
		if err != nil {
			return nil, err
		}
		logging.ResolveDebug("Extension %q matched %d file(s)", ext, len(matches))
		all = append(all, matches...)
	}
	logging.Resolve("Found %d shader source(s) under %s", len(all), r.root)
	return all, nil
}

// Owns reports whether path carries one of the configured extensions and
// is not hidden below the root.
func (r *Resolver) Owns(p string) bool {
	if rel, err := filepath.Rel(r.root, p); err == nil && hasHiddenSegment(filepath.ToSlash(rel)) {
		return false
	}
	base := filepath.Base(p)
	if strings.HasPrefix(base, ".") {
		return false
	}
	for _, ext := range r.extensions {
		if ok, _ := path.Match("*."+ext, base); ok {
			return true
		}
	}
	return false
}

// glob matches files only and returns absolute paths.
func (r *Resolver) glob(pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid shader pattern %q: %w", pattern, err)
		}
		return visible(pattern, matches), nil
	}

	info, err := os.Stat(r.root)
	if err != nil {
		return nil, fmt.Errorf("shader directory %s: %w", r.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("shader directory %s is not a directory", r.root)
	}

	rel, err := doublestar.Glob(os.DirFS(r.root), filepath.ToSlash(pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid shader pattern %q: %w", pattern, err)
	}

	rel = visible(pattern, rel)

	matches := make([]string, 0, len(rel))
	for _, m := range rel {
		matches = append(matches, filepath.Join(r.root, filepath.FromSlash(m)))
	}
	return matches, nil
}

// visible drops matches with a hidden path segment, unless the pattern
// itself has a segment starting with ".".
func visible(pattern string, matches []string) []string {
	if hasHiddenSegment(filepath.ToSlash(pattern)) {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if hasHiddenSegment(filepath.ToSlash(m)) {
			logging.ResolveDebug("Skipping hidden file %s", m)
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func hasHiddenSegment(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if len(seg) > 1 && seg[0] == '.' && seg != ".." {
			return true
		}
	}
	return false
}
