package gemspec

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"sigs.k8s.io/yaml"
)

const (
	// ArchiveExt is the file extension of gem archive files.
	ArchiveExt = ".gem"

	metadataEntry = "metadata.yaml"
	dataPrefix    = "data/"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Archive is a readable gem archive on disk. It is the seam to the host
// package manager's native package format; the default implementation is
// a gzipped tar with a metadata entry followed by payload files.
type Archive interface {
	// Spec reads the embedded package spec.
	Spec() (*Spec, error)
	// Extract unpacks all contained files into dest, overwriting
	// existing files in place.
	Extract(dest string) error
}

// Opener opens an archive file. Sources take an Opener so tests and
// alternative formats can substitute their own.
type Opener func(path string) (Archive, error)

// Open opens a gem archive. The file is validated lazily: a missing or
// corrupt archive surfaces when Spec or Extract is called.
func Open(path string) (Archive, error) {
	return &gemArchive{path: path}, nil
}

type gemArchive struct {
	path string
}

var _ Archive = &gemArchive{}

func (a *gemArchive) Spec() (*Spec, error) {
	var spec *Spec
	err := a.walk(func(hdr *tar.Header, r io.Reader) error {
		if hdr.Name != metadataEntry {
			return nil
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("reading %s: %w", metadataEntry, err)
		}
		spec = &Spec{}
		return yaml.Unmarshal(data, spec)
	})
	if err != nil {
		return nil, fmt.Errorf("reading spec from %s: %w", a.path, err)
	}
	if spec == nil {
		return nil, fmt.Errorf("archive %s has no %s entry", a.path, metadataEntry)
	}
	if spec.Name == "" || spec.Version == "" {
		return nil, fmt.Errorf("archive %s has an incomplete spec", a.path)
	}
	return spec, nil
}

func (a *gemArchive) Extract(dest string) error {
	err := a.walk(func(hdr *tar.Header, r io.Reader) error {
		if !strings.HasPrefix(hdr.Name, dataPrefix) {
			return nil
		}
		rel := strings.TrimPrefix(hdr.Name, dataPrefix)
		if rel == "" || !filepath.IsLocal(rel) {
			return fmt.Errorf("archive entry %q escapes the destination", hdr.Name)
		}

		target := filepath.Join(dest, filepath.FromSlash(rel))
		switch hdr.Typeflag {
		case tar.TypeDir:
			return os.MkdirAll(target, dirPerm)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, r); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		default:
			return fmt.Errorf("archive entry %q has unsupported type %c", hdr.Name, hdr.Typeflag)
		}
	})
	if err != nil {
		return fmt.Errorf("extracting %s: %w", a.path, err)
	}
	return nil
}

// walk streams the archive, invoking fn for each tar entry.
func (a *gemArchive) walk(fn func(hdr *tar.Header, r io.Reader) error) error {
	f, err := os.Open(a.path)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("not a gzip stream: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt tar stream: %w", err)
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}

// WriteArchive authors a gem archive at path containing spec's metadata
// and the given payload files, keyed by archive-relative path. Files are
// written in sorted order so identical inputs produce identical archives.
func WriteArchive(path string, spec *Spec, files map[string][]byte) error {
	meta, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("marshaling spec for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	tw := tar.NewWriter(zw)

	write := func(name string, data []byte) error {
		hdr := &tar.Header{
			Name: name,
			Mode: filePerm,
			Size: int64(len(data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		_, err := tw.Write(data)
		return err
	}

	if err := write(metadataEntry, meta); err != nil {
		return fmt.Errorf("writing metadata entry: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := write(dataPrefix+name, files[name]); err != nil {
			return fmt.Errorf("writing entry %s: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}
