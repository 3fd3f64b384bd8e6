package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Output artifact file names, fixed for the explorer UI.
const (
	InterviewsFile    = "interviews.json"
	VectorIndicesFile = "vector-indices.json"
	ClustersFile      = "clusters.json"
	SearchIndexFile   = "search-index.json"
	MetadataFile      = "metadata.json"
)

// WriteArtifacts persists the five output files into dir, creating it if
// needed. Each file is written atomically (temp file + rename) so the UI
// never reads a half-written artifact.
func (s *Summary) WriteArtifacts(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	artifacts := []struct {
		name string
		v    any
	}{
		{InterviewsFile, s.Records},
		{VectorIndicesFile, s.Indices},
		{ClustersFile, s.Clusters},
		{SearchIndexFile, s.Search},
		{MetadataFile, s.Manifest},
	}
	for _, a := range artifacts {
		if err := writeJSON(filepath.Join(dir, a.name), a.v); err != nil {
			return fmt.Errorf("write %s: %w", a.name, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
