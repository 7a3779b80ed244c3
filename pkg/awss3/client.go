// Package awss3 drives the AWS CLI as a subprocess. The bucket protocol
// itself is the CLI's problem; this package only owns the command contract
// (sync, object copy, SSO probing and re-login) and error surfacing.
package awss3

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EnvCLIOverride names the environment variable that overrides AWS CLI
// binary discovery.
const EnvCLIOverride = "S3GEMS_AWS_CLI"

// Client runs AWS CLI subcommands against a resolved binary.
type Client struct {
	// Path is the absolute path to the aws binary.
	Path string
}

// DetectClient finds the AWS CLI by first checking the S3GEMS_AWS_CLI env
// var, then searching PATH.
func DetectClient() (*Client, error) {
	if override := os.Getenv(EnvCLIOverride); override != "" {
		path, err := exec.LookPath(override)
		if err != nil {
			return nil, fmt.Errorf("%s=%q not found in PATH: %w", EnvCLIOverride, override, err)
		}
		return &Client{Path: path}, nil
	}

	path, err := exec.LookPath("aws")
	if err != nil {
		return nil, fmt.Errorf("aws CLI not found (install it or set %s): %w", EnvCLIOverride, err)
	}
	return &Client{Path: path}, nil
}

// Sync mirrors the remote bucket subtree into localDir, deleting local
// entries absent remotely. Combined stdout/stderr is returned in both the
// success and failure cases for diagnostics.
func (c *Client) Sync(ctx context.Context, remoteURI, localDir string) (string, error) {
	cmd := exec.CommandContext(ctx, c.Path, "s3", "sync", "--delete", remoteURI, localDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("aws s3 sync %s: %w", remoteURI, err)
	}
	return string(out), nil
}

// CopyObject copies one remote object to localPath.
func (c *Client) CopyObject(ctx context.Context, remoteURI, localPath string) error {
	cmd := exec.CommandContext(ctx, c.Path, "s3", "cp", remoteURI, localPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("aws s3 cp %s: %w: %s", remoteURI, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// UsesSSO reports whether the local AWS configuration carries a
// single-sign-on marker, meaning an expired session can be refreshed with
// an interactive login.
func (c *Client) UsesSSO(ctx context.Context) bool {
	for _, key := range []string{"sso_session", "sso_start_url"} {
		cmd := exec.CommandContext(ctx, c.Path, "configure", "get", key)
		out, err := cmd.Output()
		if err == nil && strings.TrimSpace(string(out)) != "" {
			return true
		}
	}
	return false
}

// SSOLogin runs the interactive `aws sso login` flow with the caller's
// terminal attached.
func (c *Client) SSOLogin(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.Path, "sso", "login")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aws sso login: %w", err)
	}
	return nil
}
