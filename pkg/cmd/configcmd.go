package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/config"
)

func newConfigCmd() *cobra.Command {
	var (
		flagAWSCLI         string
		flagCacheDir       string
		flagNonInteractive bool
	)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or persist runtime settings",
		Long: `Without flags, prints the resolved configuration. With flags, applies
them to the resolved configuration and persists the result to the global
config file (~/.s3gems/config.toml).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := false
			if cmd.Flags().Changed("aws-cli") {
				Cfg.AWSCLI = flagAWSCLI
				changed = true
			}
			if cmd.Flags().Changed("cache-dir") {
				Cfg.CacheDir = flagCacheDir
				changed = true
			}
			if cmd.Flags().Changed("non-interactive") {
				Cfg.NonInteractive = flagNonInteractive
				changed = true
			}

			if !changed {
				data, err := Cfg.Marshal()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}

			path, err := config.WriteGlobal(Cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}

	configCmd.Flags().StringVar(&flagAWSCLI, "aws-cli", "", "path to the aws binary")
	configCmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "app cache directory for gem copies")
	configCmd.Flags().BoolVar(&flagNonInteractive, "non-interactive", false, "suppress prompts (sso login runs without asking)")

	return configCmd
}
