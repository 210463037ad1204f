package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// SSTableReader is a handle on an installed, immutable on-disk table.
type SSTableReader struct {
	Path string
}

// SSTableWriter renames a just-received file into its final location
// and opens it for reads
type SSTableWriter struct{}

func NewSSTableWriter() *SSTableWriter {
	return &SSTableWriter{}
}

// RenameAndOpen renames the file at tmpPath to finalPath and returns a
// reader over it. The rename is local to one filesystem, matching the
// teacher's assumption that streamed data lands in the table's own
// data directory from the start.
func (w *SSTableWriter) RenameAndOpen(tmpPath, finalPath string) (*SSTableReader, error) {
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return nil, fmt.Errorf("renaming %s to %s: %w", tmpPath, finalPath, err)
	}
	return &SSTableReader{Path: finalPath}, nil
}

// ColumnFamilyStore is the per-table collaborator the newcomer-side
// bootstrap verb handlers allocate filenames from and install
// completed tables into.
type ColumnFamilyStore interface {
	// GetTempSSTableFileName returns a fresh, locally unique stem
	// (no directory, no suffix kind) for a table about to be streamed
	// in.
	GetTempSSTableFileName() string

	// DataDirectory returns the directory completed tables for this
	// column family live in.
	DataDirectory() string

	// AddSSTable installs a completed reader into the live table set.
	AddSSTable(reader *SSTableReader) error

	// OpenForStreaming opens a local file for shipping to a bootstrap
	// target, returning its path and size for StreamContext bookkeeping.
	OpenForStreaming(localPath string) (path string, size int64, err error)
}

// LocalColumnFamilyStore is a minimal, concrete, directory-backed
// ColumnFamilyStore: good enough to drive the whole bootstrap pipeline
// under test without faking out the collaborator.
type LocalColumnFamilyStore struct {
	dataDir string
	seq     int64

	lock   sync.Mutex
	tables []*SSTableReader
}

func NewLocalColumnFamilyStore(dataDir string) *LocalColumnFamilyStore {
	return &LocalColumnFamilyStore{dataDir: dataDir}
}

func (s *LocalColumnFamilyStore) GetTempSSTableFileName() string {
	n := atomic.AddInt64(&s.seq, 1)
	return fmt.Sprintf("tmp-%d", n)
}

func (s *LocalColumnFamilyStore) DataDirectory() string {
	return s.dataDir
}

// AddSSTable is internally synchronized: completion handlers for
// distinct sources may install concurrently.
func (s *LocalColumnFamilyStore) AddSSTable(reader *SSTableReader) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tables = append(s.tables, reader)
	return nil
}

func (s *LocalColumnFamilyStore) Tables() []*SSTableReader {
	s.lock.Lock()
	defer s.lock.Unlock()
	out := make([]*SSTableReader, len(s.tables))
	copy(out, s.tables)
	return out
}

func (s *LocalColumnFamilyStore) OpenForStreaming(localPath string) (string, int64, error) {
	info, err := os.Stat(localPath)
	if err != nil {
		return "", 0, err
	}
	return filepath.Clean(localPath), info.Size(), nil
}
