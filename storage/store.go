// Package storage persists named pivot configurations (engine snapshots).
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/pivot/engine"
)

var (
	// ErrNotFound is returned by Load and Delete for unknown names.
	ErrNotFound = errors.New("configuration not found")

	// ErrInvalidName is returned for empty names.
	ErrInvalidName = errors.New("invalid configuration name")
)

// Store saves and loads snapshots by name. Save overwrites.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*engine.Snapshot, error)
	Save(ctx context.Context, snap engine.Snapshot) error
	Delete(ctx context.Context, name string) error
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*File)(nil)
	_ Store = (*Postgres)(nil)
)
