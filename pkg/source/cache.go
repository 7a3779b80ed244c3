package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

// cacheMarker is touched in the app cache directory so the host recognizes
// it as a populated gem cache.
const cacheMarker = ".bundlecache"

// CacheGem copies spec's archive from the sync mirror into the app cache
// directory (or customPath when non-empty), creating the directory and
// touching the cache marker. The mirror must already be populated; a
// missing archive is a MissingArchiveError, not a trigger to sync.
func (s *Source) CacheGem(spec *gemspec.Spec, customPath string) error {
	srcPath := filepath.Join(s.GemsMirror(), spec.FullName()+gemspec.ArchiveExt)
	if _, err := os.Stat(srcPath); os.IsNotExist(err) {
		return &MissingArchiveError{FullName: spec.FullName(), Dir: s.GemsMirror()}
	} else if err != nil {
		return fmt.Errorf("checking %s: %w", srcPath, err)
	}

	dir := s.appCacheDir
	if customPath != "" {
		dir = customPath
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	if err := copyFile(srcPath, filepath.Join(dir, filepath.Base(srcPath))); err != nil {
		return fmt.Errorf("caching %s: %w", spec.FullName(), err)
	}

	marker, err := os.OpenFile(filepath.Join(dir, cacheMarker), os.O_CREATE|os.O_WRONLY, specPerm)
	if err != nil {
		return fmt.Errorf("touching cache marker: %w", err)
	}
	return marker.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
