package storage

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// FileSystem is an interface for filesystem operations
type FileSystem interface {
	// MkdirAll creates a directory and any necessary parent directories
	MkdirAll(path string, perm os.FileMode) error
	// Stat returns a FileInfo describing the named file
	Stat(name string) (os.FileInfo, error)
	// Create creates or truncates the named file for writing
	Create(name string) (io.WriteCloser, error)
	// Open opens the named file for reading
	Open(name string) (io.ReadCloser, error)
	// ReadDir reads a directory and returns a list of DirEntry
	ReadDir(name string) ([]os.DirEntry, error)
	// Remove removes a named file or empty directory
	Remove(name string) error
	// RemoveAll removes a named directory and any children it contains
	RemoveAll(path string) error
}

// aferoFileSystem adapts an afero.Fs to FileSystem
type aferoFileSystem struct {
	fs afero.Fs
}

func (fs *aferoFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return fs.fs.MkdirAll(path, perm)
}

func (fs *aferoFileSystem) Stat(name string) (os.FileInfo, error) {
	return fs.fs.Stat(name)
}

func (fs *aferoFileSystem) Create(name string) (io.WriteCloser, error) {
	return fs.fs.Create(name)
}

func (fs *aferoFileSystem) Open(name string) (io.ReadCloser, error) {
	return fs.fs.Open(name)
}

func (fs *aferoFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	entries, err := afero.ReadDir(fs.fs, name)
	if err != nil {
		return nil, err
	}

	// Convert []os.FileInfo to []os.DirEntry
	dirEntries := make([]os.DirEntry, len(entries))
	for i, entry := range entries {
		dirEntries[i] = &aferoDirEntry{info: entry}
	}
	return dirEntries, nil
}

func (fs *aferoFileSystem) Remove(name string) error {
	return fs.fs.Remove(name)
}

func (fs *aferoFileSystem) RemoveAll(path string) error {
	return fs.fs.RemoveAll(path)
}

// aferoDirEntry implements os.DirEntry using afero.FileInfo
type aferoDirEntry struct {
	info os.FileInfo
}

func (e *aferoDirEntry) Name() string               { return e.info.Name() }
func (e *aferoDirEntry) IsDir() bool                { return e.info.IsDir() }
func (e *aferoDirEntry) Type() os.FileMode          { return e.info.Mode().Type() }
func (e *aferoDirEntry) Info() (os.FileInfo, error) { return e.info, nil }

// NewOSFileSystem returns a FileSystem that uses the actual OS filesystem.
// External converters need real paths, so production always uses this one.
func NewOSFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewOsFs()}
}

// NewMemMapFileSystem returns a FileSystem backed by afero's in-memory filesystem
func NewMemMapFileSystem() FileSystem {
	return &aferoFileSystem{fs: afero.NewMemMapFs()}
}

// NewAferoFileSystem wraps an afero.Fs in the FileSystem interface
func NewAferoFileSystem(fs afero.Fs) FileSystem {
	return &aferoFileSystem{fs: fs}
}
