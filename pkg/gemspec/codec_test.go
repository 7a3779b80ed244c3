package gemspec

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

const indexYAML = `- name: foo
  version: "1.0"
- name: bar
  version: "2.1"
  platform: x86_64-linux
`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeIndex(t *testing.T) {
	tests := map[string]struct {
		data    func(t *testing.T) []byte
		name    string
		wantLen int
		wantErr bool
	}{
		"plain yaml": {
			data:    func(t *testing.T) []byte { return []byte(indexYAML) },
			name:    "specs.yaml",
			wantLen: 2,
		},
		"gzipped by extension": {
			data:    func(t *testing.T) []byte { return gzipBytes(t, []byte(indexYAML)) },
			name:    "specs.4.8.gz",
			wantLen: 2,
		},
		"rz extension also decompressed": {
			data:    func(t *testing.T) []byte { return gzipBytes(t, []byte(indexYAML)) },
			name:    "specs.4.8.rz",
			wantLen: 2,
		},
		"gz extension but plain content": {
			data:    func(t *testing.T) []byte { return []byte(indexYAML) },
			name:    "specs.4.8.gz",
			wantErr: true,
		},
		"entry missing version": {
			data:    func(t *testing.T) []byte { return []byte("- name: foo\n") },
			name:    "specs.yaml",
			wantErr: true,
		},
		"not yaml": {
			data:    func(t *testing.T) []byte { return []byte("{{{") },
			name:    "specs.yaml",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			idx, err := YAMLCodec{}.DecodeIndex(tc.data(t), tc.name)
			if (err != nil) != tc.wantErr {
				t.Fatalf("DecodeIndex() error = %v, wantErr = %v", err, tc.wantErr)
			}
			if err != nil {
				return
			}
			if idx.Len() != tc.wantLen {
				t.Errorf("Len() = %d, want %d", idx.Len(), tc.wantLen)
			}
			if _, ok := idx.Lookup("foo-1.0"); !ok {
				t.Error("foo-1.0 missing from decoded index")
			}
		})
	}
}

func TestSpecRoundTrip(t *testing.T) {
	spec := &Spec{
		Name:     "foo",
		Version:  "1.0",
		Platform: "x86_64-linux",
		Summary:  "a test gem",
	}

	data, err := YAMLCodec{}.EncodeSpec(spec)
	if err != nil {
		t.Fatalf("EncodeSpec() error = %v", err)
	}

	got, err := YAMLCodec{}.DecodeSpec(data)
	if err != nil {
		t.Fatalf("DecodeSpec() error = %v", err)
	}
	if got.FullName() != spec.FullName() {
		t.Errorf("round trip changed identity: %q -> %q", spec.FullName(), got.FullName())
	}
	if got.Summary != spec.Summary {
		t.Errorf("Summary = %q, want %q", got.Summary, spec.Summary)
	}
}

func TestDecodeSpecIncomplete(t *testing.T) {
	if _, err := (YAMLCodec{}).DecodeSpec([]byte("name: foo\n")); err == nil {
		t.Error("DecodeSpec accepted metadata without a version")
	}
}
