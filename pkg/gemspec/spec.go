package gemspec

import "fmt"

// DefaultPlatform is the platform value that is omitted from a gem's
// full name, matching the naming convention of gem archive files.
const DefaultPlatform = "ruby"

// Spec identifies a single gem by name and version and records where its
// metadata was loaded from. Source is an opaque token identifying the
// package source that produced the spec; sources use it to reject specs
// that belong to somebody else.
type Spec struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Platform string `json:"platform,omitempty"`

	Summary      string            `json:"summary,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`

	// LoadedFrom is the on-disk path of the metadata file this spec was
	// read from (or would be written to once installed).
	LoadedFrom string `json:"-"`

	// Source is set by the owning package source when it builds an index.
	Source any `json:"-"`
}

// FullName returns the canonical "<name>-<version>" identity, with a
// "-<platform>" suffix for non-default platforms. Gem archive files and
// install directories are named after it.
func (s *Spec) FullName() string {
	if s.Platform != "" && s.Platform != DefaultPlatform {
		return fmt.Sprintf("%s-%s-%s", s.Name, s.Version, s.Platform)
	}
	return fmt.Sprintf("%s-%s", s.Name, s.Version)
}
