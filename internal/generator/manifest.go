package generator

import (
	"encoding/json"
	"fmt"
	"time"
)

const manifestFileVersion = 1

// buildManifest records the checksum of every artifact written by the last
// successful run so incremental runs can skip unchanged files.
type buildManifest struct {
	Version     int                         `json:"version"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Artifacts   map[string]manifestArtifact `json:"artifacts"`
}

type manifestArtifact struct {
	Category WriteCategory `json:"category"`
	Checksum string        `json:"checksum"`
	Size     int64         `json:"size"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version:   manifestFileVersion,
		Artifacts: map[string]manifestArtifact{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var manifest buildManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if manifest.Version != manifestFileVersion {
		return newBuildManifest(), nil
	}
	if manifest.Artifacts == nil {
		manifest.Artifacts = map[string]manifestArtifact{}
	}
	return &manifest, nil
}

func (m *buildManifest) unchanged(path, checksum string) bool {
	if m == nil {
		return false
	}
	prev, ok := m.Artifacts[path]
	return ok && prev.Checksum == checksum
}

func (m *buildManifest) record(path string, category WriteCategory, checksum string, size int64) {
	m.Artifacts[path] = manifestArtifact{Category: category, Checksum: checksum, Size: size}
}

func (m *buildManifest) encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
