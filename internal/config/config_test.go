package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const sampleYAML = `
dir: web
output: internal/static/assets_gen.go
gen:
  package: static
  var: Files
  mode: embed
  hash: murmur3
  seed: 42
  markers: [".br", ".gz"]
  content_types:
    .js: application/javascript
  strict: true
  workers: 4
walk:
  exclude: ["*.map"]
  symlinks: follow
  skip_hidden: true
logging:
  level: debug
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dir != "web" || cfg.Output != "internal/static/assets_gen.go" {
		t.Errorf("paths = (%q, %q)", cfg.Dir, cfg.Output)
	}
	if cfg.Gen.Package != "static" || cfg.Gen.Var != "Files" || cfg.Gen.Mode != "embed" || cfg.Gen.Hash != "murmur3" {
		t.Errorf("gen = %+v", cfg.Gen)
	}
	if cfg.Gen.Seed == nil || *cfg.Gen.Seed != 42 {
		t.Errorf("gen.seed = %v", cfg.Gen.Seed)
	}
	if strings.Join(cfg.Gen.Markers, ",") != ".br,.gz" || cfg.Gen.ContentTypes[".js"] != "application/javascript" {
		t.Errorf("gen markers/types = %v %v", cfg.Gen.Markers, cfg.Gen.ContentTypes)
	}
	if !cfg.Gen.Strict || cfg.Gen.Workers != 4 {
		t.Errorf("gen strict/workers = %v %d", cfg.Gen.Strict, cfg.Gen.Workers)
	}
	if cfg.Walk.Symlinks != "follow" || !cfg.Walk.SkipHidden || len(cfg.Walk.Exclude) != 1 {
		t.Errorf("walk = %+v", cfg.Walk)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Dir != "" || cfg.Gen.Package != "" {
		t.Errorf("empty input produced %+v", *cfg)
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("gen:\n  pakage: x\n"))
	if err == nil || !strings.Contains(err.Error(), "pakage") {
		t.Fatalf("error = %v, want unknown field pakage", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gen.Var != "Files" {
		t.Errorf("gen.var = %q", cfg.Gen.Var)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("ASSETGEN_ROOT", "/srv/project")
	t.Setenv("ASSETGEN_LOG_LEVEL", "warn")
	t.Setenv("ASSETGEN_CONFIG", "ci.yaml")

	env, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if env.Root != "/srv/project" || env.LogLevel != "warn" || env.Config != "ci.yaml" {
		t.Errorf("LoadEnv() = %+v", env)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Dir: "web"}
	ApplyDefaults(cfg, Env{Root: "/env/root", LogLevel: "error"})

	if cfg.Root != "/env/root" || cfg.Logging.Level != "error" {
		t.Errorf("env values not applied: root=%q level=%q", cfg.Root, cfg.Logging.Level)
	}
	if cfg.Gen.Package != "assets" || cfg.Gen.Var != "Assets" || cfg.Gen.Mode != "literal" ||
		cfg.Gen.Hash != "xxh3" || cfg.Walk.Symlinks != "skip" {
		t.Errorf("defaults = %+v %+v", cfg.Gen, cfg.Walk)
	}

	// File values beat the environment.
	cfg = &Config{Root: "/file/root", Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg, Env{Root: "/env/root", LogLevel: "error"})
	if cfg.Root != "/file/root" || cfg.Logging.Level != "debug" {
		t.Errorf("file values overridden: root=%q level=%q", cfg.Root, cfg.Logging.Level)
	}

	cfg = &Config{}
	ApplyDefaults(cfg, Env{})
	if cfg.Root != "." || cfg.Logging.Level != "info" {
		t.Errorf("fallbacks: root=%q level=%q", cfg.Root, cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Dir: "web"}
		ApplyDefaults(cfg, Env{})
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError string
	}{
		{"valid", func(*Config) {}, ""},
		{"no dir", func(c *Config) { c.Dir = "" }, "dir:"},
		{"bad mode", func(c *Config) { c.Gen.Mode = "inline" }, "gen.mode"},
		{"embed to stdout", func(c *Config) { c.Gen.Mode = "embed" }, "needs an output file"},
		{"bad hash", func(c *Config) { c.Gen.Hash = "md5" }, "gen.hash"},
		{"bad symlinks", func(c *Config) { c.Walk.Symlinks = "maybe" }, "walk.symlinks"},
		{"negative workers", func(c *Config) { c.Gen.Workers = -2 }, "gen.workers"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantError == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantError) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantError)
			}
		})
	}
}

func TestBuildOptions(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	ApplyDefaults(cfg, Env{})
	if err := Validate(cfg); err != nil {
		t.Fatal(err)
	}
	// Seven base options plus seed, markers, content types, strict,
	// exclude and skip_hidden.
	if got := len(cfg.BuildOptions(zerolog.Nop())); got != 13 {
		t.Errorf("len(BuildOptions) = %d, want 13", got)
	}
	if target := cfg.Target(); target.Dir != "web" || target.Output != cfg.Output || target.Root != "." {
		t.Errorf("Target() = %+v", target)
	}
}
