package assetmap

import (
	"fmt"
	"go/token"
	"path"
	"strings"

	"github.com/rs/zerolog"

	assetserrors "github.com/tamirms/assetmap/errors"
	"github.com/tamirms/assetmap/table"
)

// EmbedMode selects how payload bytes reach the generated file.
type EmbedMode uint8

const (
	// EmbedLiteral writes every payload as a string constant in the
	// generated file. The table is laid out entirely by the linker.
	EmbedLiteral EmbedMode = iota
	// EmbedDirective declares each payload with a //go:embed directive.
	// The generated file stays small, but string headers are assigned
	// during package initialization and the assets must live below the
	// output file's directory.
	EmbedDirective
)

func (m EmbedMode) String() string {
	switch m {
	case EmbedLiteral:
		return "literal"
	case EmbedDirective:
		return "embed"
	default:
		return fmt.Sprintf("EmbedMode(%d)", uint8(m))
	}
}

// ParseEmbedMode parses "literal" or "embed". The empty string selects
// EmbedLiteral.
func ParseEmbedMode(s string) (EmbedMode, bool) {
	switch s {
	case "", "literal":
		return EmbedLiteral, true
	case "embed":
		return EmbedDirective, true
	}
	return 0, false
}

// BuildOption is a functional option for configuring generation.
type BuildOption func(*buildConfig)

type buildConfig struct {
	packageName  string
	varName      string
	buildTags    string
	embedMode    EmbedMode
	hash         table.HashID
	globalSeed   uint64
	workers      int
	strictKeys   bool
	markers      []string
	contentTypes map[string]string
	sniffUnknown bool
	symlinks     SymlinkPolicy
	exclude      []string
	skipHidden   bool
	logger       zerolog.Logger

	outputDir   string // directory of the generated file, for EmbedDirective
	sourceLabel string // assets directory as shown in the file header
}

func defaultBuildConfig() *buildConfig {
	return &buildConfig{
		packageName: "assets",
		varName:     "Assets",
		workers:     0, // single-threaded; WithWorkers(n) loads payloads in parallel
		globalSeed:  0x1234567890abcdef,
		markers:     defaultCompressionMarkers,
		logger:      zerolog.Nop(),
	}
}

// validate checks option values that cannot be rejected at option time.
func (c *buildConfig) validate() error {
	if !token.IsIdentifier(c.packageName) || c.packageName == "_" {
		return fmt.Errorf("%w: package name %q", assetserrors.ErrInvalidOption, c.packageName)
	}
	if !token.IsIdentifier(c.varName) || c.varName == "_" {
		return fmt.Errorf("%w: variable name %q", assetserrors.ErrInvalidOption, c.varName)
	}
	if c.embedMode > EmbedDirective {
		return fmt.Errorf("%w: embed mode %v", assetserrors.ErrInvalidOption, c.embedMode)
	}
	if c.embedMode == EmbedDirective && c.outputDir == "" {
		return fmt.Errorf("%w: embed mode needs an output directory", assetserrors.ErrInvalidOption)
	}
	if c.hash > table.HashMurmur3 {
		return fmt.Errorf("%w: hash %v", assetserrors.ErrInvalidOption, c.hash)
	}
	if c.symlinks > SymlinkError {
		return fmt.Errorf("%w: symlink policy %v", assetserrors.ErrInvalidOption, c.symlinks)
	}
	if c.workers < 0 {
		return fmt.Errorf("%w: workers %d", assetserrors.ErrInvalidOption, c.workers)
	}
	if len(c.markers) == 0 {
		return fmt.Errorf("%w: no compression markers", assetserrors.ErrInvalidOption)
	}
	for _, m := range c.markers {
		if len(m) < 2 || m[0] != '.' || strings.ContainsAny(m, `/\`) {
			return fmt.Errorf("%w: compression marker %q", assetserrors.ErrInvalidOption, m)
		}
	}
	for _, p := range c.exclude {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %w", assetserrors.ErrInvalidOption, p, err)
		}
	}
	for ext, ct := range c.contentTypes {
		if len(ext) < 2 || ext[0] != '.' || ct == "" {
			return fmt.Errorf("%w: content type %q for %q", assetserrors.ErrInvalidOption, ct, ext)
		}
	}
	return nil
}

// WithPackage sets the package clause of the generated file.
func WithPackage(name string) BuildOption {
	return func(c *buildConfig) {
		c.packageName = name
	}
}

// WithVarName sets the name of the generated table variable.
func WithVarName(name string) BuildOption {
	return func(c *buildConfig) {
		c.varName = name
	}
}

// WithBuildTags adds a //go:build constraint to the generated file.
func WithBuildTags(expr string) BuildOption {
	return func(c *buildConfig) {
		c.buildTags = expr
	}
}

// WithEmbedMode selects literal or //go:embed payloads.
func WithEmbedMode(m EmbedMode) BuildOption {
	return func(c *buildConfig) {
		c.embedMode = m
	}
}

// WithOutputDir sets the directory the generated file will be written to.
// Generate sets it from Config.Output; Builder users need it only for
// EmbedDirective.
func WithOutputDir(dir string) BuildOption {
	return func(c *buildConfig) {
		c.outputDir = dir
	}
}

// WithHash selects the key hash recorded in the table.
func WithHash(h table.HashID) BuildOption {
	return func(c *buildConfig) {
		c.hash = h
	}
}

// WithGlobalSeed sets the seed of the perfect hash search.
func WithGlobalSeed(seed uint64) BuildOption {
	return func(c *buildConfig) {
		c.globalSeed = seed
	}
}

// WithWorkers sets the number of goroutines that read and encode payloads.
func WithWorkers(n int) BuildOption {
	return func(c *buildConfig) {
		c.workers = n
	}
}

// WithStrictKeys makes two files with the same logical key an error
// instead of letting the later one win.
func WithStrictKeys() BuildOption {
	return func(c *buildConfig) {
		c.strictKeys = true
	}
}

// WithCompressionMarkers replaces the suffixes that mark pre-compressed
// files (default ".br"). Markers are tried in order.
func WithCompressionMarkers(markers ...string) BuildOption {
	return func(c *buildConfig) {
		c.markers = append([]string(nil), markers...)
	}
}

// WithContentTypes overrides content types by extension, e.g.
// {".js": "application/javascript"}. The map is copied.
func WithContentTypes(types map[string]string) BuildOption {
	return func(c *buildConfig) {
		if c.contentTypes == nil {
			c.contentTypes = make(map[string]string, len(types))
		}
		for ext, ct := range types {
			c.contentTypes[strings.ToLower(ext)] = ct
		}
	}
}

// WithSniffUnknown detects the content type of uncompressed files with an
// unknown extension from their first bytes.
func WithSniffUnknown() BuildOption {
	return func(c *buildConfig) {
		c.sniffUnknown = true
	}
}

// WithSymlinks sets the symbolic link policy of the walk.
func WithSymlinks(p SymlinkPolicy) BuildOption {
	return func(c *buildConfig) {
		c.symlinks = p
	}
}

// WithExclude drops files and directories matching any of the patterns
// (path.Match syntax, matched against the relative path and the base name).
func WithExclude(patterns ...string) BuildOption {
	return func(c *buildConfig) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// WithSkipHidden drops files and directories whose name starts with ".".
func WithSkipHidden() BuildOption {
	return func(c *buildConfig) {
		c.skipHidden = true
	}
}

// WithLogger sets the logger for progress and warnings. Default: no output.
func WithLogger(l zerolog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = l
	}
}

func withSourceLabel(label string) BuildOption {
	return func(c *buildConfig) {
		c.sourceLabel = label
	}
}
