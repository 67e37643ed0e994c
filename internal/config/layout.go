package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"shaderbuild/internal/logging"
)

// Layout is the resolved, absolute view of a Config for one workspace.
// It is built once at startup and handed to every component.
type Layout struct {
	Workspace         string
	ShaderRoot        string
	BuildDir          string
	IncludeDir        string
	CompilerPath      string
	Platform          string
	VaryingDefName    string
	DefaultVaryingDef string
	Extensions        []string
	ExtraArgs         []string
	Env               []string // KEY=VALUE pairs for the compiler
	PassEnv           []string // inherited variables; nil inherits all
	Timeout           time.Duration
	AuditFile         string // empty = no audit log
}

// Resolve turns the config into absolute paths rooted at workspace.
// An empty workspace means the current working directory.
func (c *Config) Resolve(workspace string) (*Layout, error) {
	return c.resolveFor(workspace, runtime.GOOS)
}

func (c *Config) resolveFor(workspace, goos string) (*Layout, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if workspace == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workspace = cwd
	}
	ws, err := absPath("", workspace)
	if err != nil {
		return nil, err
	}

	platform := c.Compiler.Platform
	if platform == "" {
		platform = PlatformFor(goos)
	}

	root, err := absPath(ws, c.Paths.Root)
	if err != nil {
		return nil, err
	}
	shaderRoot, err := absPath(root, c.Paths.Shaders)
	if err != nil {
		return nil, err
	}
	buildRoot, err := absPath(ws, c.Paths.Build)
	if err != nil {
		return nil, err
	}
	buildDir, err := absPath(buildRoot, buildSubdir(c.Paths.Shaders))
	if err != nil {
		return nil, err
	}
	if within(shaderRoot, buildDir) {
		return nil, fmt.Errorf("build directory %s must not be inside the shader directory %s", buildDir, shaderRoot)
	}
	includeDir, err := absPath(ws, c.Paths.Include)
	if err != nil {
		return nil, err
	}

	compiler := c.Compiler.Path
	if compiler == "" {
		toolsDir, err := absPath(ws, c.Paths.Tools)
		if err != nil {
			return nil, err
		}
		compiler = filepath.Join(toolsDir, platform, c.Compiler.Binary+executableSuffix(goos))
	} else if compiler, err = absPath(ws, compiler); err != nil {
		return nil, err
	}

	extra, err := c.Compiler.ExtraArgList()
	if err != nil {
		return nil, err
	}

	var auditFile string
	if c.Logging.AuditFile != "" {
		if auditFile, err = absPath(ws, c.Logging.AuditFile); err != nil {
			return nil, err
		}
	}

	exts := make([]string, len(c.Compiler.Extensions))
	copy(exts, c.Compiler.Extensions)

	var passEnv []string
	if len(c.Compiler.PassEnv) > 0 {
		passEnv = append(passEnv, c.Compiler.PassEnv...)
	}

	l := &Layout{
		Workspace:         ws,
		ShaderRoot:        shaderRoot,
		BuildDir:          buildDir,
		IncludeDir:        includeDir,
		CompilerPath:      compiler,
		Platform:          platform,
		VaryingDefName:    c.Compiler.VaryingDef,
		DefaultVaryingDef: filepath.Join(shaderRoot, c.Compiler.VaryingDef),
		Extensions:        exts,
		ExtraArgs:         extra,
		Env:               c.Compiler.EnvList(),
		PassEnv:           passEnv,
		Timeout:           c.GetCompilerTimeout(),
		AuditFile:         auditFile,
	}
	logging.ConfigDebug("Resolved layout: shaders=%s build=%s compiler=%s platform=%s",
		l.ShaderRoot, l.BuildDir, l.CompilerPath, l.Platform)
	return l, nil
}

// absPath expands ~ and joins relative paths onto base.
func absPath(base, p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", p, err)
	}
	if !filepath.IsAbs(expanded) && base != "" {
		expanded = filepath.Join(base, expanded)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", p, err)
	}
	return abs, nil
}

// buildSubdir names the output directory under the build root. An absolute
// shader directory contributes only its base name.
func buildSubdir(shaders string) string {
	expanded, err := homedir.Expand(shaders)
	if err == nil && filepath.IsAbs(expanded) {
		return filepath.Base(expanded)
	}
	return shaders
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// String renders the layout for `shaderbuild list --verbose` and debug logs.
func (l *Layout) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workspace:   %s\n", l.Workspace)
	fmt.Fprintf(&b, "shaders:     %s\n", l.ShaderRoot)
	fmt.Fprintf(&b, "build:       %s\n", l.BuildDir)
	fmt.Fprintf(&b, "include:     %s\n", l.IncludeDir)
	fmt.Fprintf(&b, "compiler:    %s\n", l.CompilerPath)
	fmt.Fprintf(&b, "platform:    %s\n", l.Platform)
	fmt.Fprintf(&b, "varying def: %s\n", l.DefaultVaryingDef)
	fmt.Fprintf(&b, "extensions:  %s\n", strings.Join(l.Extensions, ", "))
	return b.String()
}
