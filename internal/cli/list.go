package cli

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tamirms/assetmap"
)

func newListCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "Print the assets generate would embed, without writing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts, args)
		},
	}
	addWalkFlags(cmd, opts)
	return cmd
}

func runList(cmd *cobra.Command, opts *options, args []string) error {
	cfg, logger, err := resolve(cmd, opts, args)
	if err != nil {
		return err
	}
	target := cfg.Target()
	entries, err := assetmap.Scan(cmd.Context(), target, cfg.BuildOptions(logger)...)
	if err != nil {
		return errors.Wrapf(err, "scan %s", cfg.Dir)
	}

	root, err := filepath.Abs(target.Root)
	if err != nil {
		return errors.Wrap(err, "resolve root")
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCONTENT TYPE\tCOMPRESSED\tSOURCE")
	for _, e := range entries {
		src := e.Source
		if rel, err := filepath.Rel(root, e.Source); err == nil && filepath.IsLocal(rel) {
			src = filepath.ToSlash(rel)
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", e.Key, e.ContentType, e.Compressed, src)
	}
	return errors.Wrap(tw.Flush(), "write listing")
}
