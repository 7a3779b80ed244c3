package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

func newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <uri> <gem>...",
		Short: "Install gems from an S3 bucket source",
		Long: `Syncs the bucket subtree to the local mirror, resolves each gem
against the merged index, and installs it into the source's install tree.

A gem may be given as a full name (foo-1.0) or a bare name, in which case
the highest version in the index is chosen.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runInstall,
	}
}

func runInstall(cmd *cobra.Command, args []string) error {
	src, err := newSource(cmd, args[0])
	if err != nil {
		return err
	}
	src.Remote()

	idx, err := src.Specs(cmd.Context())
	if err != nil {
		return err
	}

	for _, name := range args[1:] {
		spec, err := resolveGem(idx, name)
		if err != nil {
			return err
		}
		if err := src.Install(cmd.Context(), spec); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %d gem(s) to %s\n", len(args)-1, src.InstallPath())
	return nil
}

// resolveGem finds name in the index, trying an exact full-name match
// first, then falling back to the highest-versioned entry with that gem
// name.
func resolveGem(idx *gemspec.Index, name string) (*gemspec.Spec, error) {
	if spec, ok := idx.Lookup(name); ok {
		return spec, nil
	}

	var match *gemspec.Spec
	for _, spec := range idx.Specs() {
		if spec.Name != name {
			continue
		}
		if match == nil || compareVersions(spec.Version, match.Version) > 0 {
			match = spec
		}
	}
	if match == nil {
		return nil, fmt.Errorf("gem %q not found in source index", name)
	}
	return match, nil
}

// compareVersions orders dotted version strings segment by segment,
// numerically where both segments parse as integers (so 1.10 > 1.9) and
// lexically otherwise. Missing segments count as zero.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) || i < len(bs); i++ {
		sa, sb := "0", "0"
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}

		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na > nb {
					return 1
				}
				return -1
			}
		default:
			if sa != sb {
				if sa > sb {
					return 1
				}
				return -1
			}
		}
	}
	return 0
}
