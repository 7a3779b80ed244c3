package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

func TestCacheGem(t *testing.T) {
	src := newTestSource(t, "s3://pkgs.example.com/prod")
	writeGem(t, src.GemsMirror(), &gemspec.Spec{Name: "foo", Version: "1.0"},
		map[string][]byte{"lib/foo.rb": []byte("module Foo; end\n")})

	spec := &gemspec.Spec{Name: "foo", Version: "1.0"}
	src.claimSpec(spec)

	if err := src.CacheGem(spec, ""); err != nil {
		t.Fatalf("CacheGem() error = %v", err)
	}

	cached := filepath.Join(src.appCacheDir, "foo-1.0.gem")
	if _, err := os.Stat(cached); err != nil {
		t.Errorf("cached archive missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(src.appCacheDir, ".bundlecache")); err != nil {
		t.Errorf("cache marker missing: %v", err)
	}

	// The copy is a readable archive with the right identity.
	a, err := gemspec.Open(cached)
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.Spec()
	if err != nil {
		t.Fatalf("cached archive unreadable: %v", err)
	}
	if got.FullName() != "foo-1.0" {
		t.Errorf("cached archive identity = %q, want foo-1.0", got.FullName())
	}
}

func TestCacheGemCustomPath(t *testing.T) {
	src := newTestSource(t, "s3://pkgs.example.com/prod")
	writeGem(t, src.GemsMirror(), &gemspec.Spec{Name: "foo", Version: "1.0"}, nil)

	spec := &gemspec.Spec{Name: "foo", Version: "1.0"}
	src.claimSpec(spec)

	custom := filepath.Join(t.TempDir(), "vendor", "cache")
	if err := src.CacheGem(spec, custom); err != nil {
		t.Fatalf("CacheGem() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(custom, "foo-1.0.gem")); err != nil {
		t.Errorf("archive missing from custom path: %v", err)
	}
	if _, err := os.Stat(filepath.Join(src.appCacheDir, "foo-1.0.gem")); !os.IsNotExist(err) {
		t.Error("archive also landed in the default cache dir")
	}
}

func TestCacheGemMissingArchive(t *testing.T) {
	src := newTestSource(t, "s3://pkgs.example.com/prod")

	spec := &gemspec.Spec{Name: "ghost", Version: "9.9"}
	src.claimSpec(spec)

	err := src.CacheGem(spec, "")
	var missing *MissingArchiveError
	if !errors.As(err, &missing) {
		t.Fatalf("CacheGem() error = %v, want *MissingArchiveError", err)
	}
}
