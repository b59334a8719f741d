package cli

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tamirms/assetmap"
)

func newGenerateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Write a Go file embedding every file under dir",
		Long: `generate walks dir and writes a Go source file declaring a table.Table of
its files. Without --output the source is written to stdout. On any error
nothing is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "generated file (default stdout)")
	f.StringVarP(&opts.pkg, "package", "p", "assets", "package name of the generated file")
	f.StringVar(&opts.varName, "var", "Assets", "name of the generated table variable")
	f.StringVar(&opts.mode, "mode", "literal", "payload storage: literal or embed (//go:embed)")
	f.StringVar(&opts.hash, "hash", "xxh3", "key hash: xxh3 or murmur3")
	f.Uint64Var(&opts.seed, "seed", 0, "perfect hash seed (default built in)")
	f.StringVar(&opts.buildTags, "build-tags", "", "//go:build expression for the generated file")
	f.IntVar(&opts.workers, "workers", 0, "goroutines loading payloads (0 or 1 is sequential)")
	addWalkFlags(cmd, opts)
	return cmd
}

// runGenerate resolves the configuration and generates the table.
func runGenerate(cmd *cobra.Command, opts *options, args []string) error {
	cfg, logger, err := resolve(cmd, opts, args)
	if err != nil {
		return err
	}

	target := cfg.Target()
	if target.Output == "" {
		target.Writer = cmd.OutOrStdout()
	}
	res, err := assetmap.Generate(cmd.Context(), target, cfg.BuildOptions(logger)...)
	if err != nil {
		return errors.Wrapf(err, "generate %s", cfg.Dir)
	}
	logger.Debug().
		Uint64("seed", res.Seed).
		Uint32("buckets", res.NumBuckets).
		Uint32("slots", res.NumSlots).
		Msg("table layout")
	return nil
}
