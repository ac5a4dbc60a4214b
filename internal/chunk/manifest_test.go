package chunk

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "document_chunks.json")
	chunks := []Chunk{
		{ID: "policy.pdf_p1_c0", Text: "first span", Page: 1, Source: "policy.pdf"},
		{ID: "policy.pdf_p2_c0", Text: "second span", Page: 2, Source: "policy.pdf"},
	}

	if err := WriteManifest(path, chunks); err != nil {
		t.Fatalf("WriteManifest() = %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest() = %v", err)
	}
	if !reflect.DeepEqual(got, chunks) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, chunks)
	}
}

func TestManifest_JSONKeys(t *testing.T) {
	// The manifest keys are a contract with external tooling.
	path := filepath.Join(t.TempDir(), "document_chunks.json")
	if err := WriteManifest(path, []Chunk{{ID: "a_p1_c0", Text: "t", Page: 1, Source: "a"}}); err != nil {
		t.Fatalf("WriteManifest() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}

	for _, key := range []string{`"chunk_id"`, `"text"`, `"page_number"`, `"source"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("manifest missing key %s: %s", key, data)
		}
	}
}

func TestReadManifest_MissingFile(t *testing.T) {
	if _, err := ReadManifest(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("ReadManifest() on missing file succeeded")
	}
}
