package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/alnah/go-md2deck/internal/fileutil"
	"github.com/alnah/go-md2deck/internal/yamlutil"
)

// RecordSuffix ends the name of every YAML ledger record.
const RecordSuffix = ".ledger.yaml"

// FileStore writes each record as YAML next to the artifacts of its source:
// <dir>/<stem>.ledger.yaml. When Dir is empty the record goes into the
// source's own directory.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

var _ Store = (*FileStore)(nil)

// RecordPath returns where the record for sourcePath lives.
func (s *FileStore) RecordPath(sourcePath string) string {
	dir := s.Dir
	if dir == "" {
		dir = filepath.Dir(sourcePath)
	}
	return filepath.Join(dir, fileutil.Stem(sourcePath)+RecordSuffix)
}

// Get reads the record for sourcePath. A record file written for another
// source with the same stem counts as missing.
func (s *FileStore) Get(_ context.Context, sourcePath string) (*Record, error) {
	rec, err := ReadRecordFile(s.RecordPath(sourcePath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.SourcePath != sourcePath {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *FileStore) Put(_ context.Context, rec *Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	data, err := yamlutil.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encoding record: %w", err)
	}
	path := s.RecordPath(rec.SourcePath)
	if err := fileutil.WriteFileAtomic(path, data, fileutil.FilePerm); err != nil {
		return fmt.Errorf("ledger: writing %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// ReadRecordFile decodes one YAML ledger record.
func ReadRecordFile(path string) (*Record, error) {
	var rec Record
	if err := yamlutil.ReadFile(path, &rec, false); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("ledger: reading %s: %w", path, err)
	}
	if rec.SourcePath == "" {
		return nil, fmt.Errorf("ledger: reading %s: %w", path, ErrInvalidRecord)
	}
	return &rec, nil
}
