package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var flagPath string

	cacheCmd := &cobra.Command{
		Use:   "cache <uri> <gem>",
		Short: "Copy a gem archive from the mirror into the app cache",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(cmd, args[0])
			if err != nil {
				return err
			}
			src.Remote()

			idx, err := src.Specs(cmd.Context())
			if err != nil {
				return err
			}

			spec, err := resolveGem(idx, args[1])
			if err != nil {
				return err
			}

			if err := src.CacheGem(spec, flagPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cached %s\n", spec.FullName())
			return nil
		},
	}

	cacheCmd.Flags().StringVar(&flagPath, "path", "", "cache directory override")

	return cacheCmd
}
