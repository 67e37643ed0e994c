package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the workspace when no --config is given.
const DefaultFileName = "shaderbuild.yaml"

// Config holds all shaderbuild configuration.
type Config struct {
	// Directory layout, relative to the workspace unless absolute.
	Paths PathsConfig `yaml:"paths" toml:"paths"`

	// External compiler invocation
	Compiler CompilerConfig `yaml:"compiler" toml:"compiler"`

	// Logging
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// PathsConfig names the project directories.
type PathsConfig struct {
	Root    string `yaml:"root" toml:"root"`       // project source root inside the workspace
	Shaders string `yaml:"shaders" toml:"shaders"` // shader directory under Root; its base name is the output directory under Build
	Build   string `yaml:"build" toml:"build"`     // build root
	Include string `yaml:"include" toml:"include"` // include folder passed with -i
	Tools   string `yaml:"tools" toml:"tools"`     // directory holding <platform>/shaderc
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Root:    "assets",
			Shaders: "shaders",
			Build:   "build",
			Include: filepath.Join("bgfx", "src"),
			Tools:   filepath.Join("tools", "bgfx-tools"),
		},
		Compiler: DefaultCompilerConfig(),
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML or TOML file, chosen by extension.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML or TOML file, chosen by extension.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHADERBUILD_COMPILER"); v != "" {
		c.Compiler.Path = v
	}
	if v := os.Getenv("SHADERBUILD_PLATFORM"); v != "" {
		c.Compiler.Platform = v
	}
	if v := os.Getenv("SHADERBUILD_SHADER_DIR"); v != "" {
		c.Paths.Shaders = v
	}
	if v := os.Getenv("SHADERBUILD_BUILD_DIR"); v != "" {
		c.Paths.Build = v
	}
	if v := os.Getenv("SHADERBUILD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetCompilerTimeout returns the compiler timeout. Zero means no timeout.
func (c *Config) GetCompilerTimeout() time.Duration {
	if c.Compiler.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Compiler.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Paths.Shaders == "" {
		return fmt.Errorf("paths.shaders must not be empty")
	}
	if c.Paths.Build == "" {
		return fmt.Errorf("paths.build must not be empty")
	}
	if len(c.Compiler.Extensions) == 0 {
		return fmt.Errorf("compiler.extensions must list at least one shader extension")
	}
	for _, ext := range c.Compiler.Extensions {
		if ext == "" || strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			return fmt.Errorf("invalid shader extension %q (want e.g. \"vs.sc\")", ext)
		}
	}
	if c.Compiler.VaryingDef == "" {
		return fmt.Errorf("compiler.varying_def must not be empty")
	}
	if c.Compiler.Timeout != "" {
		if d, err := time.ParseDuration(c.Compiler.Timeout); err != nil || d < 0 {
			return fmt.Errorf("invalid compiler.timeout %q", c.Compiler.Timeout)
		}
	}
	if c.Compiler.Platform != "" && !IsKnownPlatform(c.Compiler.Platform) {
		return fmt.Errorf("invalid compiler.platform: %s (valid: %v)", c.Compiler.Platform, ValidPlatforms)
	}
	if _, err := c.Compiler.ExtraArgList(); err != nil {
		return err
	}
	for k := range c.Compiler.Env {
		if k == "" || strings.Contains(k, "=") {
			return fmt.Errorf("invalid compiler.env key %q", k)
		}
	}
	for _, k := range c.Compiler.PassEnv {
		if k == "" || strings.Contains(k, "=") {
			return fmt.Errorf("invalid compiler.pass_env entry %q", k)
		}
	}
	return nil
}
