package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/spektr-org/pivot/engine"
)

const fileExt = ".json"

// File stores one JSON document per configuration under Dir.
type File struct {
	Dir string
}

// NewFile creates the directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &File{Dir: dir}, nil
}

// fileName maps a configuration name to a file inside Dir. Names are
// query-escaped so distinct names map to distinct files.
func (s *File) fileName(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, url.QueryEscape(name)+fileExt), nil
}

func (s *File) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.Dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		snap, err := s.read(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			continue
		}
		names = append(names, snap.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *File) Load(_ context.Context, name string) (*engine.Snapshot, error) {
	path, err := s.fileName(name)
	if err != nil {
		return nil, err
	}
	snap, err := s.read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	return snap, err
}

func (s *File) Save(_ context.Context, snap engine.Snapshot) error {
	path, err := s.fileName(snap.Name)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", snap.Name, err)
	}

	// Write then rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", snap.Name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", snap.Name, err)
	}
	return nil
}

func (s *File) Delete(_ context.Context, name string) error {
	path, err := s.fileName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(name)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func (s *File) read(path string) (*engine.Snapshot, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return &snap, nil
}
