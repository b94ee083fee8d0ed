package sink

import (
	"os"
	"path/filepath"
)

// Store locates CSV sinks inside one output directory. The checkpoint only
// records base filenames, so the store is what turns them back into paths.
type Store struct {
	dir     string
	pattern string
}

// NewStore returns a store rooted at dir, naming new files from pattern.
func NewStore(dir, pattern string) *Store {
	return &Store{dir: dir, pattern: pattern}
}

// Create opens a fresh sink with a header row.
func (st *Store) Create() (*CSV, error) {
	return Create(st.dir, st.pattern)
}

// Open reopens an existing sink by base filename, in append mode.
func (st *Store) Open(filename string) (*CSV, error) {
	return Open(filepath.Join(st.dir, filename))
}

// Exists reports whether the named sink file is present in the directory.
func (st *Store) Exists(filename string) bool {
	info, err := os.Stat(filepath.Join(st.dir, filename))
	return err == nil && !info.IsDir()
}
