// Package config loads assetgen settings from assetgen.yaml and the
// environment and turns them into generator options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ante-dk/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/tamirms/assetmap"
	"github.com/tamirms/assetmap/table"
)

// DefaultFile is the config file looked up in the project root when no
// path is given.
const DefaultFile = "assetgen.yaml"

// Config is the content of assetgen.yaml. Every field can also be set by
// a command-line flag, which takes precedence.
type Config struct {
	// Root is the project root that Dir and Output are relative to.
	Root string `yaml:"root"`
	// Dir is the assets directory.
	Dir string `yaml:"dir"`
	// Output is the generated file. Empty writes to stdout.
	Output string `yaml:"output"`

	Gen     GenConfig     `yaml:"gen"`
	Walk    WalkConfig    `yaml:"walk"`
	Logging LoggingConfig `yaml:"logging"`
}

// GenConfig controls the generated source.
type GenConfig struct {
	// Package is the package clause of the generated file.
	Package string `yaml:"package"`
	// Var is the name of the table variable.
	Var string `yaml:"var"`
	// Mode is "literal" or "embed".
	Mode string `yaml:"mode"`
	// Hash is the key hash, "xxh3" or "murmur3".
	Hash string `yaml:"hash"`
	// Seed overrides the perfect hash seed.
	Seed *uint64 `yaml:"seed"`
	// BuildTags is a //go:build expression for the generated file.
	BuildTags string `yaml:"build_tags"`
	// Markers are the pre-compressed file suffixes.
	Markers []string `yaml:"markers"`
	// ContentTypes maps extensions to content types, on top of the built-in table.
	ContentTypes map[string]string `yaml:"content_types"`
	// Sniff detects the type of files with an unknown extension.
	Sniff bool `yaml:"sniff"`
	// Strict fails on duplicate keys instead of keeping the later file.
	Strict bool `yaml:"strict"`
	// Workers is the number of goroutines loading payloads.
	Workers int `yaml:"workers"`
}

// WalkConfig controls which files are collected.
type WalkConfig struct {
	// Exclude lists path.Match patterns to skip.
	Exclude []string `yaml:"exclude"`
	// Symlinks is "skip", "follow" or "error".
	Symlinks string `yaml:"symlinks"`
	// SkipHidden drops dot files and directories.
	SkipHidden bool `yaml:"skip_hidden"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	// Level is a zerolog level name (debug, info, warn, error).
	Level string `yaml:"level"`
}

// Env holds the settings read from the environment.
type Env struct {
	Root     string `envconfig:"ASSETGEN_ROOT" default:"."`
	LogLevel string `envconfig:"ASSETGEN_LOG_LEVEL" default:"info"`
	Config   string `envconfig:"ASSETGEN_CONFIG"`
}

// LoadEnv reads the ASSETGEN_* variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return Env{}, fmt.Errorf("read environment: %w", err)
	}
	return e, nil
}

// Load parses a config file. Unknown keys are an error so typos do not
// silently fall back to defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data. Empty input yields an empty Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields. Values from env are used for fields the
// file and the flags left empty.
func ApplyDefaults(cfg *Config, env Env) {
	if cfg.Root == "" {
		cfg.Root = env.Root
	}
	if cfg.Root == "" {
		cfg.Root = "."
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = env.LogLevel
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Gen.Package == "" {
		cfg.Gen.Package = "assets"
	}
	if cfg.Gen.Var == "" {
		cfg.Gen.Var = "Assets"
	}
	if cfg.Gen.Mode == "" {
		cfg.Gen.Mode = assetmap.EmbedLiteral.String()
	}
	if cfg.Gen.Hash == "" {
		cfg.Gen.Hash = table.HashXXH3.String()
	}
	if cfg.Walk.Symlinks == "" {
		cfg.Walk.Symlinks = assetmap.SymlinkSkip.String()
	}
}

// Validate checks the values that the generator options cannot express
// an error for until generation starts.
func Validate(cfg *Config) error {
	var problems []string
	if cfg.Dir == "" {
		problems = append(problems, "dir: an assets directory is required")
	}
	if _, ok := assetmap.ParseEmbedMode(cfg.Gen.Mode); !ok {
		problems = append(problems, fmt.Sprintf("gen.mode: unknown mode %q (want literal or embed)", cfg.Gen.Mode))
	}
	if cfg.Gen.Mode == assetmap.EmbedDirective.String() && cfg.Output == "" {
		problems = append(problems, "gen.mode: embed needs an output file")
	}
	if _, ok := table.ParseHash(cfg.Gen.Hash); !ok {
		problems = append(problems, fmt.Sprintf("gen.hash: unknown hash %q (want xxh3 or murmur3)", cfg.Gen.Hash))
	}
	if _, ok := assetmap.ParseSymlinkPolicy(cfg.Walk.Symlinks); !ok {
		problems = append(problems, fmt.Sprintf("walk.symlinks: unknown policy %q (want skip, follow or error)", cfg.Walk.Symlinks))
	}
	if cfg.Gen.Workers < 0 {
		problems = append(problems, fmt.Sprintf("gen.workers: %d is negative", cfg.Gen.Workers))
	}
	if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level: %v", err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Target returns the directory and output described by cfg.
func (cfg *Config) Target() assetmap.Config {
	return assetmap.Config{Root: cfg.Root, Dir: cfg.Dir, Output: cfg.Output}
}

// BuildOptions translates a validated Config into generator options.
func (cfg *Config) BuildOptions(logger zerolog.Logger) []assetmap.BuildOption {
	mode, _ := assetmap.ParseEmbedMode(cfg.Gen.Mode)
	hash, _ := table.ParseHash(cfg.Gen.Hash)
	symlinks, _ := assetmap.ParseSymlinkPolicy(cfg.Walk.Symlinks)

	opts := []assetmap.BuildOption{
		assetmap.WithPackage(cfg.Gen.Package),
		assetmap.WithVarName(cfg.Gen.Var),
		assetmap.WithEmbedMode(mode),
		assetmap.WithHash(hash),
		assetmap.WithSymlinks(symlinks),
		assetmap.WithWorkers(cfg.Gen.Workers),
		assetmap.WithLogger(logger),
	}
	if cfg.Gen.Seed != nil {
		opts = append(opts, assetmap.WithGlobalSeed(*cfg.Gen.Seed))
	}
	if cfg.Gen.BuildTags != "" {
		opts = append(opts, assetmap.WithBuildTags(cfg.Gen.BuildTags))
	}
	if len(cfg.Gen.Markers) > 0 {
		opts = append(opts, assetmap.WithCompressionMarkers(cfg.Gen.Markers...))
	}
	if len(cfg.Gen.ContentTypes) > 0 {
		opts = append(opts, assetmap.WithContentTypes(cfg.Gen.ContentTypes))
	}
	if cfg.Gen.Sniff {
		opts = append(opts, assetmap.WithSniffUnknown())
	}
	if cfg.Gen.Strict {
		opts = append(opts, assetmap.WithStrictKeys())
	}
	if len(cfg.Walk.Exclude) > 0 {
		opts = append(opts, assetmap.WithExclude(cfg.Walk.Exclude...))
	}
	if cfg.Walk.SkipHidden {
		opts = append(opts, assetmap.WithSkipHidden())
	}
	return opts
}
