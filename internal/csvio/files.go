package csvio

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/pkordes/tripbook/internal/domain"
)

// FilePermissions is used for every file the package creates.
const FilePermissions = 0o644

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ReadFile opens path and hands it to read. Open failures come back as a
// *domain.FileError.
func ReadFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &domain.FileError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if err := read(f); err != nil {
		var fe *domain.FileError
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = path
		}
		return err
	}
	return nil
}

// WriteFileAtomic writes through a temp file in the same directory and
// renames it over path, so a failed write never leaves a truncated cache.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.FileError{Op: "create", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return &domain.FileError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		var fe *domain.FileError
		if errors.As(err, &fe) && fe.Path == "" {
			fe.Path = path
		}
		return err
	}
	if err := tmp.Close(); err != nil {
		return &domain.FileError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, FilePermissions); err != nil {
		return &domain.FileError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &domain.FileError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
