package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"CadenceFM/logger"
	"CadenceFM/model"

	"github.com/fsnotify/fsnotify"
)

// CatalogRepository owns the durable list of events, persisted as a single
// serialized document. ReplaceAll overwrites the whole document; there is no
// field-level persistence. A read of a missing or corrupt document degrades
// to an empty list rather than failing, since an empty catalog is a valid
// state.
type CatalogRepository interface {
	ReadAll(ctx context.Context) ([]model.Event, error)
	ReplaceAll(ctx context.Context, events []model.Event) error
}

// FileCatalogRepository stores the catalog document as a JSON file. Writers
// are serialized behind a mutex and the document is swapped in with a
// temp-file rename, so a concurrent reader sees either the old document or
// the new one, never an interleaving.
type FileCatalogRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileCatalogRepository creates a file-backed catalog store at path.
func NewFileCatalogRepository(path string) *FileCatalogRepository {
	return &FileCatalogRepository{path: path}
}

// ReadAll returns the current event list. A missing document is an empty
// catalog; a corrupt document is logged and degraded to empty.
func (r *FileCatalogRepository) ReadAll(ctx context.Context) ([]model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog document %s: %w", r.path, err)
	}

	events := make([]model.Event, 0)
	if err := json.Unmarshal(data, &events); err != nil {
		logger.Warn("Catalog document is corrupt, treating as empty",
			logger.String("path", r.path),
			logger.ErrorField(err))
		return []model.Event{}, nil
	}
	return events, nil
}

// ReplaceAll atomically overwrites the catalog document with the given list.
func (r *FileCatalogRepository) ReplaceAll(ctx context.Context, events []model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if events == nil {
		events = []model.Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog document: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
	}

	// Write to a temp file in the same directory, then rename over the
	// document so readers never observe a partial write.
	tmp, err := os.CreateTemp(dir, ".events-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp catalog file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp catalog file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp catalog file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace catalog document %s: %w", r.path, err)
	}
	return nil
}

// WatchExternalChanges watches the catalog document and logs every on-disk
// change, including replaces made by this process. The catalog has no merge
// semantics, so an external edit racing a ReplaceAll is lost; the log gives
// operators a trail. Blocks until ctx is done.
func (r *FileCatalogRepository) WatchExternalChanges(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory %s: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch catalog directory %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != r.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) != 0 {
				logger.Info("Catalog document changed on disk",
					logger.String("path", r.path),
					logger.String("op", event.Op.String()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Catalog watcher error", logger.ErrorField(err))
		}
	}
}
