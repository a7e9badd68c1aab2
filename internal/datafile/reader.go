package datafile

import (
	"context"
	"strings"

	"github.com/kfreiman/anypdf/internal/process"
)

// Reader loads a data file into renderable content
type Reader interface {
	Read(ctx context.Context, path string) (Content, error)
}

// ReaderFunc adapts a function to the Reader interface
type ReaderFunc func(ctx context.Context, path string) (Content, error)

// Read implements Reader
func (f ReaderFunc) Read(ctx context.Context, path string) (Content, error) {
	return f(ctx, path)
}

// Binaries names the external tools some readers shell out to
type Binaries struct {
	H5Dump   string
	ReadStat string
}

// Registry maps lower-case file extensions to readers
type Registry struct {
	readers map[string]Reader
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// DefaultRegistry wires a reader for every supported binary data extension
func DefaultRegistry(inv process.Invoker, bins Binaries) *Registry {
	r := NewRegistry()

	r.Register(ParquetReader{}, ".parquet")
	r.Register(FeatherReader{}, ".feather")
	r.Register(HDF5Reader{Invoker: inv, Bin: bins.H5Dump}, ".h5", ".hdf5")
	r.Register(PickleReader{}, ".pickle", ".pkl")
	r.Register(StatReader{Invoker: inv, Bin: bins.ReadStat}, ".sav", ".dta")
	r.Register(MatReader{}, ".mat")
	r.Register(SQLiteReader{}, ".db", ".sqlite")

	return r
}

// Register binds reader to each extension, replacing any previous binding
func (r *Registry) Register(reader Reader, exts ...string) {
	for _, ext := range exts {
		r.readers[strings.ToLower(ext)] = reader
	}
}

// Lookup returns the reader for ext
func (r *Registry) Lookup(ext string) (Reader, bool) {
	reader, ok := r.readers[strings.ToLower(ext)]
	return reader, ok
}
