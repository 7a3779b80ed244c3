package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/awss3"
	"github.com/muhammad-st/bundler-source-aws-s3/pkg/config"
	"github.com/muhammad-st/bundler-source-aws-s3/pkg/source"
)

// Cfg holds the resolved runtime configuration, available to all
// subcommands after PersistentPreRunE completes.
var Cfg *config.Config

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "s3gems",
		Short: "Gem source backed by an S3 bucket",
		Long:  "s3gems resolves, fetches, caches, and installs gems whose authoritative store is an S3 bucket mirrored locally via the AWS CLI.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			Cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}

	root.AddCommand(newInstallCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newUnlockCmd())
	root.AddCommand(newConfigCmd())

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		var accessErr *source.AccessError
		if errors.As(err, &accessErr) {
			os.Exit(source.AccessErrorExitStatus)
		}
		os.Exit(1)
	}
}

// newSource builds a Source for uri wired to the resolved configuration
// and the command's output stream.
func newSource(cmd *cobra.Command, uri string) (*source.Source, error) {
	var client *awss3.Client
	if Cfg.AWSCLI != "" {
		client = &awss3.Client{Path: Cfg.AWSCLI}
	}

	return source.New(uri, source.Options{
		AppCacheDir: Cfg.CacheDir,
		Client:      client,
		Progress:    cmd.OutOrStdout(),
		Login:       loginWithConsent(client),
	})
}

// loginWithConsent fronts the interactive `aws sso login` with a confirm
// prompt, unless the configuration says to run non-interactively.
func loginWithConsent(client *awss3.Client) awss3.LoginFunc {
	return func(ctx context.Context) error {
		if !Cfg.NonInteractive {
			proceed := true
			prompt := huh.NewConfirm().
				Title("AWS session looks expired. Run `aws sso login` now?").
				Value(&proceed)
			if err := prompt.Run(); err != nil {
				return fmt.Errorf("login prompt failed: %w", err)
			}
			if !proceed {
				return fmt.Errorf("sso login declined")
			}
		}

		c := client
		if c == nil {
			var err error
			c, err = awss3.DetectClient()
			if err != nil {
				return err
			}
		}
		return c.SSOLogin(ctx)
	}
}
