package gemspec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"sigs.k8s.io/yaml"
)

// compressedExts are the file extensions that mark an index blob as
// gzip-compressed. ".rz" is the legacy marshalled-index extension and is
// also plain deflate-wrapped, readable by a gzip-tolerant decoder upstream;
// here both are treated as gzip.
var compressedExts = []string{".gz", ".rz"}

// Codec reads and writes gem metadata. It is the seam to the host package
// manager's native serialization; the default implementation speaks YAML,
// which is what gemspec metadata files contain.
type Codec interface {
	// DecodeIndex deserializes an index blob. name is the blob's object
	// name, consulted only for its extension to detect compression.
	DecodeIndex(data []byte, name string) (*Index, error)
	// EncodeSpec renders a spec to its textual metadata representation
	// for writing beside an installed gem.
	EncodeSpec(spec *Spec) ([]byte, error)
	// DecodeSpec reads back a metadata file written by EncodeSpec.
	DecodeSpec(data []byte) (*Spec, error)
}

// YAMLCodec is the default Codec.
type YAMLCodec struct{}

var _ Codec = YAMLCodec{}

func (YAMLCodec) DecodeIndex(data []byte, name string) (*Index, error) {
	if isCompressed(name) {
		var err error
		data, err = gunzip(data)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s: %w", name, err)
		}
	}

	var specs []*Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("decoding index %s: %w", name, err)
	}

	idx := NewIndex()
	for _, spec := range specs {
		if spec.Name == "" || spec.Version == "" {
			return nil, fmt.Errorf("index %s contains an entry without name or version", name)
		}
		idx.Add(spec)
	}
	return idx, nil
}

func (YAMLCodec) EncodeSpec(spec *Spec) ([]byte, error) {
	return yaml.Marshal(spec)
}

func (YAMLCodec) DecodeSpec(data []byte) (*Spec, error) {
	spec := &Spec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("decoding spec metadata: %w", err)
	}
	if spec.Name == "" || spec.Version == "" {
		return nil, fmt.Errorf("spec metadata is missing name or version")
	}
	return spec, nil
}

func isCompressed(name string) bool {
	for _, ext := range compressedExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
