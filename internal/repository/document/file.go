package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

const (
	// TempSuffix is appended to the canonical path to name the temporary file.
	TempSuffix = ".tmp"

	// DefaultFilePermissions is the mode of the document file.
	DefaultFilePermissions = 0o644
)

// FileRepository stores the document as a JSON file on disk.
type FileRepository struct {
	// path is the canonical document location.
	path string
	// tempPath is the sibling file written before the rename.
	tempPath string
	// mu serialises writers, since they share tempPath. Readers never take it.
	mu sync.Mutex
}

// NewFileRepository creates a repository for the document at path.
func NewFileRepository(path string) *FileRepository {
	path = filepath.Clean(path)

	return &FileRepository{
		path:     path,
		tempPath: path + TempSuffix,
	}
}

// Path returns the canonical document path.
func (r *FileRepository) Path() string {
	return r.path
}

// TempPath returns the temporary file path.
func (r *FileRepository) TempPath() string {
	return r.tempPath
}

// Save writes the document to the temporary file and renames it over the canonical path.
func (r *FileRepository) Save(_ context.Context, doc *environment.Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err = writeFileSynced(r.tempPath, data); err != nil {
		_ = os.Remove(r.tempPath)

		return fmt.Errorf("write temporary document: %w", err)
	}

	if err = os.Rename(r.tempPath, r.path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}

	return nil
}

// Load reads the canonical file.
// It does not wait for writers: the rename in Save is what keeps reads whole.
func (r *FileRepository) Load(_ context.Context) ([]byte, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read document: %w", err)
	}

	return contents, nil
}

// Remove deletes the canonical and the temporary file.
func (r *FileRepository) Remove(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	for _, path := range []string{r.path, r.tempPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}

	return errors.Join(errs...)
}

// writeFileSynced writes data to path and flushes it to stable storage before closing.
func writeFileSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFilePermissions)
	if err != nil {
		return err
	}

	if _, err = f.Write(data); err != nil {
		_ = f.Close()

		return err
	}

	if err = f.Sync(); err != nil {
		_ = f.Close()

		return err
	}

	return f.Close()
}
