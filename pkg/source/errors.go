package source

import (
	"fmt"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

// AccessErrorExitStatus is the process exit status for remote access
// failures, kept distinct from the generic failure status so drivers can
// tell "re-authenticate and re-run" apart from everything else.
const AccessErrorExitStatus = 17

// AccessError means the bucket could not be reached even after the single
// SSO re-login retry. It carries the attempted remote URI and the raw
// command output for the user to act on.
type AccessError struct {
	URI    string
	Output string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("cannot access %s (try `aws sso login` and re-run):\n%s", e.URI, e.Output)
}

// ValidationError means a spec failed the ownership trust boundary: it was
// produced by a different source, or its metadata path is not the one this
// source computes. Indicates cross-source contamination, never coerced.
type ValidationError struct {
	FullName string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("refusing to handle %s: %s", e.FullName, e.Reason)
}

// MissingArchiveError means a spec has no backing archive in the sync
// mirror, so there is nothing to install or cache.
type MissingArchiveError struct {
	FullName string
	Dir      string
}

func (e *MissingArchiveError) Error() string {
	return fmt.Sprintf("no gem archive for %s in %s", e.FullName, e.Dir)
}

func validationError(spec *gemspec.Spec, reason string) *ValidationError {
	return &ValidationError{FullName: spec.FullName(), Reason: reason}
}
