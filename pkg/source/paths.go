package source

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	installRootDir = "s3-gems"
	mirrorRootDir  = "bundler-source-aws-s3"
	gemsDir        = "gems"

	// SpecExt is the extension of the metadata file written beside an
	// installed gem and read back on later runs.
	SpecExt = ".gemspec"
)

// ParseURI splits a source URI of the shape s3://bucket-host/path/to/prefix
// into the bucket (normalized host) and the bucket-relative prefix (path
// with the leading slash stripped). A URI with no path component addresses
// the bucket root; the prefix is then empty.
func ParseURI(uri string) (bucket, prefix string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parsing source URI %q: %w", uri, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("source URI %q has no bucket host", uri)
	}

	bucket = strings.ToLower(u.Host)
	prefix = strings.Trim(u.Path, "/")
	return bucket, prefix, nil
}

// InstallPath is the root of this source's install tree:
// <home>/s3-gems/<bucket>/<prefix>. Pure function of the parsed URI, so a
// later run recomputes the identical path and rediscovers installed gems.
func (s *Source) InstallPath() string {
	return filepath.Join(s.home, installRootDir, s.bucket, filepath.FromSlash(s.prefix))
}

// SpecInstallDir is the directory a gem's files are unpacked into.
func (s *Source) SpecInstallDir(fullName string) string {
	return filepath.Join(s.InstallPath(), fullName)
}

// SpecPath is the metadata file path this source computes for a gem. A
// spec is only trusted for installation when its LoadedFrom equals this.
func (s *Source) SpecPath(fullName string) string {
	return filepath.Join(s.SpecInstallDir(fullName), fullName+SpecExt)
}

// MirrorPath is the local mirror of the remote bucket subtree:
// <cache-root>/bundler-source-aws-s3/<bucket>/<prefix>.
func (s *Source) MirrorPath() string {
	return filepath.Join(s.cacheRoot, mirrorRootDir, s.bucket, filepath.FromSlash(s.prefix))
}

// GemsMirror is the mirror subdirectory holding the gem archives.
func (s *Source) GemsMirror() string {
	return filepath.Join(s.MirrorPath(), gemsDir)
}

// RemoteURI is the canonical s3:// URI of the mirrored subtree.
func (s *Source) RemoteURI() string {
	if s.prefix == "" {
		return "s3://" + s.bucket
	}
	return "s3://" + s.bucket + "/" + s.prefix
}

// remoteObjectURI addresses a single object under the prefix.
func (s *Source) remoteObjectURI(object string) string {
	return s.RemoteURI() + "/" + object
}
