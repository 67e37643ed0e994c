package config

import (
	"fmt"
	"sort"

	"github.com/mattn/go-shellwords"
)

// CompilerConfig configures the external shader compiler.
type CompilerConfig struct {
	// Binary is the executable name inside <tools>/<platform>/.
	Binary string `yaml:"binary" toml:"binary"`

	// Path overrides the computed compiler location entirely.
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`

	// Platform overrides host detection (linux, osx, windows, ...).
	Platform string `yaml:"platform,omitempty" toml:"platform,omitempty"`

	// Extensions are the recognized shader source suffixes, without the leading dot.
	Extensions []string `yaml:"extensions" toml:"extensions"`

	// VaryingDef is the varying definition file name looked up next to each source.
	VaryingDef string `yaml:"varying_def" toml:"varying_def"`

	// ExtraArgs are appended after the standard flags, split with shell rules.
	ExtraArgs string `yaml:"extra_args,omitempty" toml:"extra_args,omitempty"`

	// Timeout kills a compiler run after this long. Empty means no limit.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	// Env is added to the inherited environment of every compiler run.
	Env map[string]string `yaml:"env,omitempty" toml:"env,omitempty"`

	// PassEnv restricts the inherited environment to these variables.
	// Empty inherits everything.
	PassEnv []string `yaml:"pass_env,omitempty" toml:"pass_env,omitempty"`
}

// DefaultCompilerConfig returns the bgfx shaderc defaults.
func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		Binary:     "shaderc",
		Extensions: []string{"vs.sc", "fs.sc"},
		VaryingDef: "varying.def.sc",
	}
}

// ExtraArgList splits ExtraArgs into discrete arguments.
func (c CompilerConfig) ExtraArgList() ([]string, error) {
	if c.ExtraArgs == "" {
		return nil, nil
	}
	args, err := shellwords.Parse(c.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid compiler.extra_args %q: %w", c.ExtraArgs, err)
	}
	return args, nil
}

// EnvList renders Env as sorted KEY=VALUE pairs.
func (c CompilerConfig) EnvList() []string {
	if len(c.Env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	return env
}
