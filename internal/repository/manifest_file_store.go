package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
)

// ErrManifestExists is returned when Save would overwrite an existing run.
// A training run writes its manifest exactly once.
var ErrManifestExists = errors.New("manifest already exists")

// ErrManifestNotFound is returned by Load for an unknown run id.
var ErrManifestNotFound = errors.New("manifest not found")

// FileManifestStore persists manifests as pretty-printed JSON files under a
// root directory, one file per run id.
type FileManifestStore struct {
	dir string
}

func NewFileManifestStore(dir string) (*FileManifestStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	return &FileManifestStore{dir: dir}, nil
}

func (s *FileManifestStore) Save(ctx context.Context, runID string, m *models.Manifest) error {
	path, err := s.path(runID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrManifestExists, runID)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat manifest: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	// Write to a temp file in the same directory, then rename, so a reader
	// never observes a partial manifest.
	tmp, err := os.CreateTemp(s.dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close manifest: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

func (s *FileManifestStore) Load(ctx context.Context, runID string) (*models.Manifest, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, runID)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", runID, err)
	}
	return &m, nil
}

func (s *FileManifestStore) path(runID string) (string, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || strings.Contains(runID, "..") {
		return "", fmt.Errorf("invalid run id %q", runID)
	}
	return filepath.Join(s.dir, runID+".json"), nil
}

var _ domrepo.ManifestStore = (*FileManifestStore)(nil)
