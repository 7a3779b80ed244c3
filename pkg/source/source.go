// Package source implements a gem source backed by an S3 bucket: it
// reconciles the remote catalog, the local gem cache, and the install tree
// into one index, and materializes gems from the bucket's local mirror.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/awss3"
	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

// RemoteIndexObject is the bucket-relative name of the compressed index
// blob holding the remote catalog.
const RemoteIndexObject = "specs.4.8.gz"

const dirPerm = 0o755

// Options configures a Source. Zero-value fields get defaults in New.
type Options struct {
	// Home is the install root. Defaults to os.UserHomeDir().
	Home string
	// CacheRoot is the user cache root holding the sync mirror.
	// Defaults to os.UserCacheDir().
	CacheRoot string
	// AppCacheDir is the per-run gem cache directory. Defaults to
	// <Home>/.s3gems/cache.
	AppCacheDir string

	// Client runs AWS CLI subcommands. Resolved lazily via DetectClient
	// on first remote access, so offline runs never need the CLI.
	Client *awss3.Client
	// Codec reads index blobs and writes gemspec metadata.
	Codec gemspec.Codec
	// OpenArchive opens gem archive files.
	OpenArchive gemspec.Opener

	// Progress receives user-facing notices. Defaults to os.Stdout.
	Progress io.Writer
	// Login performs SSO re-authentication before the single sync retry.
	// Defaults to the client's interactive `aws sso login`.
	Login awss3.LoginFunc
	// PostInstall runs after a gem is materialized on disk.
	PostInstall func(spec *gemspec.Spec) error
}

// Source is one bucket-backed gem source. All memoized state (the merged
// index, the pull flag) is per-instance; invalidation is explicit via the
// lifecycle methods. Not safe for concurrent use.
type Source struct {
	URI string

	bucket string
	prefix string

	home        string
	cacheRoot   string
	appCacheDir string

	client      *awss3.Client
	codec       gemspec.Codec
	openArchive gemspec.Opener
	progress    io.Writer
	login       awss3.LoginFunc
	postInstall func(spec *gemspec.Spec) error

	remoteEnabled bool
	cachedEnabled bool

	specs   *gemspec.Index
	pulled  bool
	pullErr error
}

// New builds a Source for the given s3://bucket/prefix URI.
func New(uri string, opts Options) (*Source, error) {
	bucket, prefix, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	if opts.Home == "" {
		opts.Home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
	}
	if opts.CacheRoot == "" {
		opts.CacheRoot, err = os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("determining cache directory: %w", err)
		}
	}
	if opts.AppCacheDir == "" {
		opts.AppCacheDir = filepath.Join(opts.Home, ".s3gems", "cache")
	}
	if opts.Codec == nil {
		opts.Codec = gemspec.YAMLCodec{}
	}
	if opts.OpenArchive == nil {
		opts.OpenArchive = gemspec.Open
	}
	if opts.Progress == nil {
		opts.Progress = os.Stdout
	}

	return &Source{
		URI:         uri,
		bucket:      bucket,
		prefix:      prefix,
		home:        opts.Home,
		cacheRoot:   opts.CacheRoot,
		appCacheDir: opts.AppCacheDir,
		client:      opts.Client,
		codec:       opts.Codec,
		openArchive: opts.OpenArchive,
		progress:    opts.Progress,
		login:       opts.Login,
		postInstall: opts.PostInstall,
	}, nil
}

// Remote enables remote-index participation for this run.
func (s *Source) Remote() {
	s.remoteEnabled = true
	s.invalidate()
}

// Cached enables cached-index participation for this run.
func (s *Source) Cached() {
	s.cachedEnabled = true
	s.invalidate()
}

// Unlock removes this source's entire install tree, forcing the next
// index build to exclude previously installed gems.
func (s *Source) Unlock() error {
	if err := os.RemoveAll(s.InstallPath()); err != nil {
		return fmt.Errorf("removing install tree: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *Source) invalidate() {
	s.specs = nil
}

// Specs returns the merged index for this run: remote (when enabled),
// overridden by cached (when caching or remote is enabled), overridden by
// installed. A gem already materialized on disk is ground truth; the
// remote listing is merely a catalog. The result is memoized until one of
// Remote, Cached, or Unlock invalidates it.
func (s *Source) Specs(ctx context.Context) (*gemspec.Index, error) {
	if s.specs != nil {
		return s.specs, nil
	}

	idx := gemspec.NewIndex()

	if s.remoteEnabled {
		remote, err := s.remoteSpecs(ctx)
		if err != nil {
			return nil, err
		}
		idx.Merge(remote)
	}

	if s.cachedEnabled || s.remoteEnabled {
		cached, err := s.cachedSpecs()
		if err != nil {
			return nil, err
		}
		idx.Merge(cached)
	}

	installed, err := s.installedSpecs()
	if err != nil {
		return nil, err
	}
	idx.Merge(installed)

	s.specs = idx
	return idx, nil
}

// Pull populates the local mirror of the bucket subtree. The underlying
// sync runs at most once per Source lifetime; later calls return the
// memoized result.
func (s *Source) Pull(ctx context.Context) error {
	if s.pulled {
		return s.pullErr
	}
	s.pulled = true

	if err := os.MkdirAll(s.MirrorPath(), dirPerm); err != nil {
		s.pullErr = fmt.Errorf("creating mirror directory: %w", err)
		return s.pullErr
	}

	client, err := s.awsClient()
	if err != nil {
		s.pullErr = err
		return s.pullErr
	}

	res := client.SyncWithRetry(ctx, s.RemoteURI(), s.MirrorPath(), s.login)
	if !res.OK() {
		s.pullErr = &AccessError{URI: res.RemoteURI, Output: res.Output}
	}
	return s.pullErr
}

// FetchBundlerObject copies one remote object under the prefix to a
// scoped temporary file, reads it, and decodes it as an index blob
// (decompressing when the object name says so). The temporary file is
// removed no matter how the fetch ends.
func (s *Source) FetchBundlerObject(ctx context.Context, object string) (*gemspec.Index, error) {
	client, err := s.awsClient()
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "s3gems-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	uri := s.remoteObjectURI(object)
	if err := client.CopyObject(ctx, uri, tmpPath); err != nil {
		return nil, &AccessError{URI: uri, Output: err.Error()}
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("reading fetched object %s: %w", object, err)
	}

	return s.codec.DecodeIndex(data, object)
}

// remoteSpecs ensures the mirror exists, then fetches and decodes the
// remote catalog.
func (s *Source) remoteSpecs(ctx context.Context) (*gemspec.Index, error) {
	if err := s.Pull(ctx); err != nil {
		return nil, err
	}

	idx, err := s.FetchBundlerObject(ctx, RemoteIndexObject)
	if err != nil {
		return nil, err
	}
	s.claim(idx)
	return idx, nil
}

// cachedSpecs indexes the gem archives present in the app cache directory.
func (s *Source) cachedSpecs() (*gemspec.Index, error) {
	return s.specsFromArchives(s.appCacheDir)
}

// installedSpecs indexes what is materialized under the install tree: gem
// archives anywhere in the tree, plus the gemspec metadata receipts that
// Install writes. Receipts win over archives for the same identity.
func (s *Source) installedSpecs() (*gemspec.Index, error) {
	idx, err := s.specsFromArchives(s.InstallPath())
	if err != nil {
		return nil, err
	}

	receipts, err := s.specsFromReceipts()
	if err != nil {
		return nil, err
	}
	idx.Merge(receipts)
	return idx, nil
}

// specsFromArchives walks dir for *.gem files and reads each embedded
// spec. An unreadable archive is fatal for the run: a partial index would
// silently hide install bugs.
func (s *Source) specsFromArchives(dir string) (*gemspec.Index, error) {
	idx := gemspec.NewIndex()

	paths, err := findArchives(dir)
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		a, err := s.openArchive(path)
		if err != nil {
			return nil, fmt.Errorf("opening archive %s: %w", path, err)
		}
		spec, err := a.Spec()
		if err != nil {
			return nil, fmt.Errorf("reading archive %s: %w", path, err)
		}
		s.claimSpec(spec)
		idx.Add(spec)
	}
	return idx, nil
}

// specsFromReceipts decodes the <full-name>.gemspec metadata files that
// Install writes into each gem's install directory.
func (s *Source) specsFromReceipts() (*gemspec.Index, error) {
	idx := gemspec.NewIndex()

	entries, err := os.ReadDir(s.InstallPath())
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing install tree: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		specPath := s.SpecPath(entry.Name())
		data, err := os.ReadFile(specPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", specPath, err)
		}

		spec, err := s.codec.DecodeSpec(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", specPath, err)
		}
		s.claimSpec(spec)
		idx.Add(spec)
	}
	return idx, nil
}

// claim marks every spec in idx as owned by this source, with LoadedFrom
// set to the path this source computes for it.
func (s *Source) claim(idx *gemspec.Index) {
	for _, spec := range idx.Specs() {
		s.claimSpec(spec)
	}
}

func (s *Source) claimSpec(spec *gemspec.Spec) {
	spec.Source = s
	spec.LoadedFrom = s.SpecPath(spec.FullName())
}

func (s *Source) awsClient() (*awss3.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	client, err := awss3.DetectClient()
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

// findArchives returns the *.gem files under dir, walking recursively, in
// sorted order. Duplicate identities across archives are a documented
// precondition violation; lookups take the first match.
func findArchives(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), gemspec.ArchiveExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s for archives: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}
