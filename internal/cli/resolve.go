package cli

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tamirms/assetmap/internal/config"
)

// addWalkFlags registers the flags that decide which files become assets.
func addWalkFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringSliceVar(&opts.markers, "marker", []string{".br"}, "suffixes of pre-compressed files")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "path.Match patterns of files and directories to skip")
	f.StringVar(&opts.symlinks, "symlinks", "skip", "symbolic links: skip, follow or error")
	f.BoolVar(&opts.sniff, "sniff", false, "detect the content type of files with unknown extensions")
	f.BoolVar(&opts.skipHidden, "skip-hidden", false, "skip files and directories starting with a dot")
	f.BoolVar(&opts.strict, "strict", false, "fail when two files map to the same key")
}

// resolve merges flags, the config file and the environment, in that
// order of precedence, into a validated Config and a logger.
func resolve(cmd *cobra.Command, opts *options, args []string) (*config.Config, zerolog.Logger, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, zerolog.Nop(), errors.Wrap(err, "load environment")
	}

	cfg, err := loadConfigFile(cmd, opts, env)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	flags := cmd.Flags()
	overlay := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	overlay("root", func() { cfg.Root = opts.root })
	overlay("log-level", func() { cfg.Logging.Level = opts.logLevel })
	overlay("output", func() { cfg.Output = opts.output })
	overlay("package", func() { cfg.Gen.Package = opts.pkg })
	overlay("var", func() { cfg.Gen.Var = opts.varName })
	overlay("mode", func() { cfg.Gen.Mode = opts.mode })
	overlay("hash", func() { cfg.Gen.Hash = opts.hash })
	overlay("seed", func() { cfg.Gen.Seed = &opts.seed })
	overlay("build-tags", func() { cfg.Gen.BuildTags = opts.buildTags })
	overlay("workers", func() { cfg.Gen.Workers = opts.workers })
	overlay("strict", func() { cfg.Gen.Strict = opts.strict })
	overlay("marker", func() { cfg.Gen.Markers = opts.markers })
	overlay("sniff", func() { cfg.Gen.Sniff = opts.sniff })
	overlay("exclude", func() { cfg.Walk.Exclude = opts.exclude })
	overlay("symlinks", func() { cfg.Walk.Symlinks = opts.symlinks })
	overlay("skip-hidden", func() { cfg.Walk.SkipHidden = opts.skipHidden })
	if len(args) > 0 {
		cfg.Dir = args[0]
	}

	config.ApplyDefaults(cfg, env)
	if err := config.Validate(cfg); err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logging.Level)
	if err != nil {
		return nil, zerolog.Nop(), errors.Wrap(err, "configure logging")
	}
	return cfg, logger, nil
}

// loadConfigFile reads the explicit config file, if any, or the default
// file in the project root when it exists.
func loadConfigFile(cmd *cobra.Command, opts *options, env config.Env) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = env.Config
	}
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, errors.Wrap(err, "load config")
	}

	root := env.Root
	if cmd.Flags().Changed("root") || root == "" {
		root = opts.root
	}
	path = filepath.Join(root, config.DefaultFile)
	if _, err := os.Stat(path); err != nil {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(path)
	return cfg, errors.Wrap(err, "load config")
}
