package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"finance-insights/internal/models"
	"finance-insights/internal/parsers"
	"finance-insights/pkg/errors"
	"finance-insights/pkg/logger"

	"github.com/spf13/afero"
)

// FileStore keeps the dataset as a JSON document on an afero filesystem.
// Writes go to a temporary file that is renamed over the target.
type FileStore struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	newID  parsers.IDGenerator
	logger logger.Logger
}

// FileOption configures a FileStore
type FileOption func(*FileStore)

// WithIDGenerator sets the generator used for stored transactions without an id
func WithIDGenerator(gen parsers.IDGenerator) FileOption {
	return func(s *FileStore) {
		s.newID = gen
	}
}

// NewFileStore creates a store for path on fs. A nil fs uses the OS filesystem.
func NewFileStore(fs afero.Fs, path string, opts ...FileOption) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &FileStore{
		fs:     fs,
		path:   path,
		newID:  parsers.NewUUID,
		logger: logger.GetGlobalLogger().WithComponent("file_store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the location of the dataset file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the dataset file. A missing file is an empty dataset.
func (s *FileStore) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeCancelled, "file_load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.fs.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("path", s.path).Debug("Dataset file does not exist, starting empty")
			return &models.Dataset{}, nil
		}
		return nil, errors.StorageError(errors.CodeLoadFailed, s.path, err)
	}
	defer f.Close()

	ds, err := parsers.DecodeDataset(f, s.path, parsers.DecodeOptions{NewID: s.newID})
	if err != nil {
		return nil, errors.StorageError(errors.CodeLoadFailed, s.path, err)
	}

	s.logger.WithFields(logger.Fields{
		"path":         s.path,
		"transactions": len(ds.Transactions),
		"budgets":      len(ds.Budgets),
		"goals":        len(ds.Goals),
	}).Debug("Loaded dataset")

	return ds, nil
}

// Save validates ds and writes it atomically
func (s *FileStore) Save(ctx context.Context, ds *models.Dataset) error {
	if err := ctx.Err(); err != nil {
		return errors.InternalError(errors.CodeCancelled, "file_save", err)
	}
	if ds == nil {
		return errors.StorageError(errors.CodeSaveFailed, s.path, nil).WithContext("reason", "nil dataset")
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return errors.StorageError(errors.CodeSaveFailed, s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.StorageError(errors.CodeSaveFailed, s.path, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return errors.StorageError(errors.CodeSaveFailed, tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return errors.StorageError(errors.CodeSaveFailed, s.path, err)
	}

	s.logger.WithFields(logger.Fields{
		"path":         s.path,
		"transactions": len(ds.Transactions),
	}).Debug("Saved dataset")

	return nil
}
