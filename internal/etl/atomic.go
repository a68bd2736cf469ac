package etl

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// AtomicFile is written under a temporary name and renamed into place on
// Commit, so a failed run leaves no partial output behind
type AtomicFile struct {
	*os.File
	path string
	done bool
}

// CreateAtomic creates a temporary file next to path
func CreateAtomic(path string) (*AtomicFile, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*-"+filepath.Base(path))
	if err != nil {
		return nil, eris.Wrapf(err, "etl: create temp file for %s", path)
	}
	return &AtomicFile{File: f, path: path}, nil
}

// TempPath is where content is written before Commit
func (a *AtomicFile) TempPath() string {
	return a.File.Name()
}

// Commit closes the file and moves it to its final path
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true
	if err := a.File.Close(); err != nil {
		_ = os.Remove(a.TempPath())
		return eris.Wrapf(err, "etl: close %s", a.path)
	}
	return eris.Wrapf(os.Rename(a.TempPath(), a.path), "etl: rename into %s", a.path)
}

// Abort discards the temporary file; it is a no-op after Commit
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	_ = a.File.Close()
	_ = os.Remove(a.TempPath())
}
