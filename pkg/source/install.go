package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

const specPerm = 0o644

// Install materializes spec from the sync mirror into the install tree:
// validate ownership, locate the backing archive, extract it, write the
// gemspec receipt, run the post-install hook. Re-installing the same spec
// overwrites the destination deterministically, so repeat runs are no-op
// successes rather than errors.
func (s *Source) Install(ctx context.Context, spec *gemspec.Spec) error {
	fmt.Fprintf(s.progress, "Using %s %s from %s\n", spec.Name, spec.Version, s.URI)

	if err := s.Validate(spec); err != nil {
		return err
	}

	archivePath, err := s.findGem(spec.FullName())
	if err != nil {
		return err
	}

	dest := s.SpecInstallDir(spec.FullName())
	if err := os.MkdirAll(dest, dirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	a, err := s.openArchive(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	if err := a.Extract(dest); err != nil {
		return err
	}

	data, err := s.codec.EncodeSpec(spec)
	if err != nil {
		return fmt.Errorf("encoding spec for %s: %w", spec.FullName(), err)
	}
	if err := os.WriteFile(s.SpecPath(spec.FullName()), data, specPerm); err != nil {
		return fmt.Errorf("writing gemspec receipt: %w", err)
	}

	if s.postInstall != nil {
		if err := s.postInstall(spec); err != nil {
			return fmt.Errorf("post-install hook for %s: %w", spec.FullName(), err)
		}
	}
	return nil
}

// Validate enforces the ownership trust boundary: the spec must have been
// produced by this source instance, and its LoadedFrom must be the exact
// metadata path this source computes for its identity. Anything else is a
// spec that belongs to, or was mutated by, another source.
func (s *Source) Validate(spec *gemspec.Spec) error {
	owner, ok := spec.Source.(*Source)
	if !ok || owner != s {
		return validationError(spec, "spec belongs to a different source")
	}
	if want := s.SpecPath(spec.FullName()); spec.LoadedFrom != want {
		return validationError(spec, fmt.Sprintf("spec was loaded from %q, expected %q", spec.LoadedFrom, want))
	}
	return nil
}

// findGem locates the archive for fullName among the archive files in the
// gems mirror. Linear scan over the sorted listing; first match wins.
func (s *Source) findGem(fullName string) (string, error) {
	dir := s.GemsMirror()
	paths, err := findArchives(dir)
	if err != nil {
		return "", err
	}

	want := fullName + gemspec.ArchiveExt
	for _, path := range paths {
		if filepath.Base(path) == want {
			return path, nil
		}
	}
	return "", &MissingArchiveError{FullName: fullName, Dir: dir}
}
