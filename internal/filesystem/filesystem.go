package filesystem

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileSystem places fetched resources and journal files on an afero.Fs.
type FileSystem struct {
	fs afero.Fs
}

// New wraps fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *FileSystem {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &FileSystem{fs: fs}
}

// Fs returns the underlying filesystem.
func (f *FileSystem) Fs() afero.Fs {
	return f.fs
}

// CreateFile creates path, making its parent directory if needed.
func (f *FileSystem) CreateFile(path string) (io.WriteCloser, error) {
	if err := f.EnsureDirectory(filepath.Dir(path)); err != nil {
		return nil, err
	}

	return f.fs.Create(path)
}

// DeleteFile removes path. A missing file is not an error.
func (f *FileSystem) DeleteFile(path string) error {
	err := f.fs.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// EnsureDirectory ensures a directory exists
func (f *FileSystem) EnsureDirectory(path string) error {
	return f.fs.MkdirAll(path, 0o755)
}

// FileExists checks if a file exists
func (f *FileSystem) FileExists(path string) (bool, error) {
	return afero.Exists(f.fs, path)
}
