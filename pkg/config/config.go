// Package config holds the process-wide settings of the component engine:
// naming convention, component template directory and loader wiring.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v4"

	v "github.com/neurodesk/cotton/pkg/validator"
)

const (
	ResolverExpr     = "expr"
	ResolverStarlark = "starlark"
)

type Config struct {
	// Dir is the directory, relative to the template roots, holding
	// component templates.
	Dir string `yaml:"dir"`
	// SnakeCaseNames maps hyphens in component names to underscores in
	// template paths.
	SnakeCaseNames bool   `yaml:"snake_case_names"`
	Extension      string `yaml:"extension"`
	// Resolver selects the dynamic attribute expression language.
	Resolver string `yaml:"resolver"`

	TemplateDirs   []string      `yaml:"template_dirs,omitempty"`
	RemoteBaseURL  string        `yaml:"remote_base_url,omitempty"`
	CacheDir       string        `yaml:"cache_dir,omitempty"`
	SourceCacheTTL time.Duration `yaml:"source_cache_ttl,omitempty"`
}

func Default() Config {
	return Config{
		Dir:            "cotton",
		SnakeCaseNames: true,
		Extension:      "html",
		Resolver:       ResolverExpr,
		TemplateDirs:   []string{"templates"},
		SourceCacheTTL: 5 * time.Minute,
	}
}

func (c Config) Validate() error {
	return v.All(
		v.NotEmpty(c.Dir, "dir"),
		v.RelativePath(c.Dir, "dir"),
		v.HasNoJinja(c.Dir, "dir"),
		v.NotEmpty(c.Extension, "extension"),
		v.NoPrefix(c.Extension, ".", "extension"),
		v.MatchesAllowed(c.Resolver, []string{ResolverExpr, ResolverStarlark}, "resolver"),
		v.Map(c.TemplateDirs, v.NotEmpty, "template_dirs"),
		v.NoDuplicates(c.TemplateDirs, "template_dirs"),
		c.remoteValid(),
	)
}

func (c Config) remoteValid() error {
	if c.RemoteBaseURL != "" && c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required when remote_base_url is set")
	}
	if c.SourceCacheTTL <= 0 {
		return fmt.Errorf("source_cache_ttl must be positive")
	}
	return nil
}

// Parse decodes YAML over the defaults; unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return Parse(f)
}
