// Package cli implements the assetgen command.
package cli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// options holds flag values shared by the subcommands.
type options struct {
	configPath string
	logLevel   string
	root       string

	output    string
	pkg       string
	varName   string
	mode      string
	hash      string
	seed      uint64
	buildTags string
	workers   int
	strict    bool

	markers    []string
	exclude    []string
	symlinks   string
	sniff      bool
	skipHidden bool
}

// newRootCmd builds the command tree writing to the given streams.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "assetgen",
		Short: "Embed a directory of static assets in a Go program",
		Long: `assetgen scans a directory of static assets and writes a Go source file
declaring a minimal perfect hash table of their contents. The table needs no
initialization at startup; lookups cost one hash and one string compare.

Typical use is a go:generate directive next to the code serving the assets:

	//go:generate go run github.com/tamirms/assetmap/cmd/assetgen generate web -o assets_gen.go`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $ASSETGEN_CONFIG, then <root>/assetgen.yaml if present)")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&opts.root, "root", ".", "project root that relative paths resolve against (env ASSETGEN_ROOT)")

	root.AddCommand(newGenerateCmd(opts), newListCmd(opts), newVersionCmd())
	return root
}

// Execute runs assetgen with the process arguments and exits non-zero on
// failure. It is called by main.main.
func Execute() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Error().Msgf("%v", err)
		os.Exit(1)
	}
}

// newLogger returns a console logger on w at the named level.
func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger(), nil
}
