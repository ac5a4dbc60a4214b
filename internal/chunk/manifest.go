package chunk

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteManifest writes the chunk manifest as a JSON array. The manifest is a
// debugging and recovery aid; the pipeline reads it back before indexing so
// a failed ingestion can be replayed from disk.
func WriteManifest(path string, chunks []Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chunk manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing chunk manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest reads a chunk manifest written by WriteManifest.
func ReadManifest(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunk manifest %s: %w", path, err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunk manifest %s: %w", path, err)
	}
	return chunks, nil
}
