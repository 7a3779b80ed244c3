package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/muhammad-st/bundler-source-aws-s3/pkg/awss3"
	"github.com/muhammad-st/bundler-source-aws-s3/pkg/gemspec"
)

// newTestSource builds a Source with throwaway home/cache roots and
// discarded progress output.
func newTestSource(t *testing.T, uri string, tweak ...func(*Options)) *Source {
	t.Helper()

	opts := Options{
		Home:        t.TempDir(),
		CacheRoot:   t.TempDir(),
		AppCacheDir: filepath.Join(t.TempDir(), "gem-cache"),
		Progress:    io.Discard,
	}
	for _, fn := range tweak {
		fn(&opts)
	}

	src, err := New(uri, opts)
	if err != nil {
		t.Fatalf("New(%q) error = %v", uri, err)
	}
	return src
}

// writeGem authors a gem archive named after the spec into dir, creating
// dir first.
func writeGem(t *testing.T, dir string, spec *gemspec.Spec, files map[string][]byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, spec.FullName()+gemspec.ArchiveExt)
	if err := gemspec.WriteArchive(path, spec, files); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	return path
}

// fakeAWS writes an executable stand-in for the aws binary, logging each
// invocation so tests can count subprocess calls.
func fakeAWS(t *testing.T, body string) (client *awss3.Client, logPath string) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	script := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %q\n%s\n", logPath, body)

	path := filepath.Join(dir, "aws")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return &awss3.Client{Path: path}, logPath
}

func countLines(t *testing.T, logPath, prefix string) int {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if bytes.HasPrefix(line, []byte(prefix)) {
			n++
		}
	}
	return n
}

// remoteIndexFixture writes a gzipped index blob listing the given specs
// and returns a fake client whose `s3 cp` serves it (and whose `s3 sync`
// succeeds quietly).
func remoteIndexFixture(t *testing.T, specs []*gemspec.Spec) *awss3.Client {
	t.Helper()

	yamlDoc := ""
	for _, spec := range specs {
		yamlDoc += fmt.Sprintf("- name: %s\n  version: %q\n", spec.Name, spec.Version)
		if spec.Summary != "" {
			yamlDoc += fmt.Sprintf("  summary: %s\n", spec.Summary)
		}
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(yamlDoc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	fixture := filepath.Join(t.TempDir(), "specs.4.8.gz")
	if err := os.WriteFile(fixture, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	client, _ := fakeAWS(t, fmt.Sprintf(`
case "$1 $2" in
"s3 sync") exit 0 ;;
"s3 cp") cp %q "$4"; exit 0 ;;
esac
exit 1`, fixture))
	return client
}
