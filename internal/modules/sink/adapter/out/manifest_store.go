package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"statusrelay/internal/modules/sink/domain"
	sinkout "statusrelay/internal/modules/sink/port/out"
)

// DirManifestStore reads one manifest.yaml per sink from
// <sinkDir>/<name>/manifest.yaml. Relative binary paths resolve against the
// sink's own directory.
type DirManifestStore struct {
	sinkDir string
}

func NewDirManifestStore(sinkDir string) sinkout.ManifestStore {
	return &DirManifestStore{sinkDir: sinkDir}
}

func (s *DirManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	entries, err := os.ReadDir(s.sinkDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read sink dir: %w", err)
	}

	manifests := []domain.Manifest{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.sinkDir, entry.Name(), "manifest.yaml")
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read sink manifest %s: %w", entry.Name(), err)
		}
		manifest := domain.Manifest{}
		if err := yaml.Unmarshal(raw, &manifest); err != nil {
			return nil, fmt.Errorf("decode sink manifest %s: %w", entry.Name(), err)
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}
		if manifest.Binary != "" && !filepath.IsAbs(manifest.Binary) {
			manifest.Binary = filepath.Clean(filepath.Join(s.sinkDir, entry.Name(), manifest.Binary))
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}
