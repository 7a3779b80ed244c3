package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <uri>",
		Short: "Remove a source's install tree to force a clean reinstall",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := newSource(cmd, args[0])
			if err != nil {
				return err
			}
			if err := src.Unlock(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", src.InstallPath())
			return nil
		},
	}
}
