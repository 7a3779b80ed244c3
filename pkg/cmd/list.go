package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var (
		flagRemote bool
		flagCached bool
	)

	listCmd := &cobra.Command{
		Use:   "list <uri>",
		Short: "List gems visible to a bucket source",
		Long: `Prints the merged index for the source. By default only installed
gems appear; --cached adds the local gem cache, and --remote adds the
bucket's catalog (triggering a mirror sync).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(cmd, args[0])
			if err != nil {
				return err
			}
			if flagRemote {
				src.Remote()
			}
			if flagCached {
				src.Cached()
			}

			idx, err := src.Specs(cmd.Context())
			if err != nil {
				return err
			}

			for _, spec := range idx.Specs() {
				fmt.Fprintln(cmd.OutOrStdout(), spec.FullName())
			}
			return nil
		},
	}

	listCmd.Flags().BoolVar(&flagRemote, "remote", false, "include the bucket's remote catalog")
	listCmd.Flags().BoolVar(&flagCached, "cached", false, "include the local gem cache")

	return listCmd
}
